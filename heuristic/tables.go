package heuristic

// 各级别使用的域名表。表中条目按“域名或其父域名”命中，
// 即 "doubleclick.net" 同时覆盖 "ads.doubleclick.net"。

// adDomains: 广告网络（standard 起生效）
var adDomains = makeTable(
	"doubleclick.net",
	"googlesyndication.com",
	"googleadservices.com",
	"googletagservices.com",
	"adnxs.com",
	"adsrvr.org",
	"advertising.com",
	"adform.net",
	"criteo.com",
	"criteo.net",
	"pubmatic.com",
	"rubiconproject.com",
	"openx.net",
	"taboola.com",
	"outbrain.com",
	"revcontent.com",
	"mgid.com",
	"smartadserver.com",
	"adroll.com",
	"media.net",
	"yieldmo.com",
	"sharethrough.com",
	"amazon-adsystem.com",
	"moatads.com",
	"zedo.com",
	"adcolony.com",
	"unityads.unity3d.com",
)

// analyticsDomains: 统计/分析（standard 起生效）
var analyticsDomains = makeTable(
	"google-analytics.com",
	"googletagmanager.com",
	"analytics.google.com",
	"scorecardresearch.com",
	"quantserve.com",
	"quantcount.com",
	"chartbeat.com",
	"parsely.com",
	"mixpanel.com",
	"segment.io",
	"segment.com",
	"amplitude.com",
	"heapanalytics.com",
	"kissmetrics.com",
	"statcounter.com",
	"clicky.com",
	"matomo.cloud",
	"hitslink.com",
	"crwdcntrl.net",
	"demdex.net",
	"omtrdc.net",
	"exelator.com",
	"bluekai.com",
	"agkn.com",
)

// socialDomains: 社交组件/像素（standard 起生效）
var socialDomains = makeTable(
	"connect.facebook.net",
	"facebook.net",
	"pixel.facebook.com",
	"platform.twitter.com",
	"syndication.twitter.com",
	"ads.linkedin.com",
	"px.ads.linkedin.com",
	"sc-static.net",
	"ads.pinterest.com",
	"ct.pinterest.com",
	"ads.tiktok.com",
	"analytics.tiktok.com",
	"snap.licdn.com",
	"ads-api.twitter.com",
)

// recommendationDomains: 电商/内容推荐（aggressive 起生效）
var recommendationDomains = makeTable(
	"richrelevance.com",
	"monetate.net",
	"dynamicyield.com",
	"nosto.com",
	"bazaarvoice.com",
	"curalate.com",
	"cquotient.com",
	"granify.com",
	"attraqt.com",
	"emarsys.com",
	"bronto.com",
	"listrakbi.com",
)

// perfMonitoringDomains: 性能监控（aggressive 起生效）
var perfMonitoringDomains = makeTable(
	"newrelic.com",
	"nr-data.net",
	"bam.nr-data.net",
	"pingdom.net",
	"rum-static.pingdom.net",
	"speedcurve.com",
	"mpulse.net",
	"go-mpulse.net",
	"akstat.io",
	"boomerang.akamaized.net",
	"bugsnag.com",
	"raygun.io",
	"trackjs.com",
)

// behaviorDomains: 行为跟踪/会话回放（aggressive 起生效）
var behaviorDomains = makeTable(
	"hotjar.com",
	"hotjar.io",
	"mouseflow.com",
	"fullstory.com",
	"crazyegg.com",
	"clicktale.net",
	"inspectlet.com",
	"luckyorange.com",
	"sessioncam.com",
	"smartlook.com",
	"logrocket.io",
	"logrocket.com",
	"quantummetric.com",
	"decibelinsight.net",
	"contentsquare.net",
)

// marketingDomains: 营销自动化（strict 起生效）
var marketingDomains = makeTable(
	"marketo.net",
	"marketo.com",
	"mktoresp.com",
	"pardot.com",
	"hubspot.com",
	"hs-analytics.net",
	"hs-scripts.com",
	"eloqua.com",
	"en25.com",
	"act-on.net",
	"actonsoftware.com",
	"salesloft.com",
	"drip.com",
	"klaviyo.com",
	"braze.com",
	"iterable.com",
	"customer.io",
)

// miningDomains: 浏览器挖矿（strict 起生效）
var miningDomains = makeTable(
	"coinhive.com",
	"coin-hive.com",
	"cryptoloot.pro",
	"crypto-loot.com",
	"webminepool.com",
	"minero.cc",
	"coinimp.com",
	"jsecoin.com",
	"browsermine.com",
	"webmine.cz",
	"authedmine.com",
)

// malwareDomains: 恶意软件分发（strict 起生效）
var malwareDomains = makeTable(
	"malware-traffic-analysis.net",
	"grandstreamdreams.com",
	"pushwelcome.com",
	"badtracker.net",
	"trafficjunky.net",
	"adsterra.com",
	"propellerads.com",
	"popads.net",
	"popcash.net",
	"onclickads.net",
	"mobisla.com",
)

// trackingKeywords: aggressive 级别在主机名与路径上检查的关键词
var trackingKeywords = []string{
	"ads",
	"advert",
	"tracking",
	"analytics",
	"pixel",
	"beacon",
	"telemetry",
	"monitor",
	"collect",
	"harvest",
}

// trackingPathSegments: aggressive 级别检查的路径片段
var trackingPathSegments = []string{
	"/ads/",
	"/ad/",
	"/track/",
	"/tracking/",
	"/pixel/",
	"/beacon/",
	"/analytics/",
	"/telemetry/",
	"/collect/",
	"/metrics/",
}

// assetTokens: strict 级别组合检查用的 CDN/资源路径关键词，
// 需与广告/跟踪关键词在同一主机名中同时出现才判定命中。
var assetTokens = []string{
	"cdn",
	"static",
	"assets",
	"js",
	"css",
	"img",
	"api",
	"widget",
	"media",
	"content",
}

func makeTable(domains ...string) map[string]struct{} {
	t := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		t[d] = struct{}{}
	}
	return t
}
