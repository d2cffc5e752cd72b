package subscription

// ListConfig describes one entry of the static subscription catalog.
type ListConfig struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	URL              string `json:"url"`
	Category         string `json:"category"` // ads | privacy | annoyances | security | custom
	Priority         string `json:"priority"` // high | medium | low
	EnabledByDefault bool   `json:"enabled_by_default"`
}

// CustomListID is the id of the local personal rules list.
const CustomListID = "custom"

// Catalog returns the built-in subscription catalog. The custom list's
// URL is a local file path filled in from configuration at registration
// time.
func Catalog() []ListConfig {
	return []ListConfig{
		{
			ID:               "easylist",
			Name:             "EasyList",
			Description:      "主流广告拦截规则",
			URL:              "https://easylist.to/easylist/easylist.txt",
			Category:         "ads",
			Priority:         "high",
			EnabledByDefault: true,
		},
		{
			ID:               "easyprivacy",
			Name:             "EasyPrivacy",
			Description:      "跟踪器与遥测拦截规则",
			URL:              "https://easylist.to/easylist/easyprivacy.txt",
			Category:         "privacy",
			Priority:         "high",
			EnabledByDefault: true,
		},
		{
			ID:               "fanboy-annoyance",
			Name:             "Fanboy's Annoyance List",
			Description:      "弹窗、Cookie 提示等页面干扰",
			URL:              "https://secure.fanboy.co.nz/fanboy-annoyance.txt",
			Category:         "annoyances",
			Priority:         "medium",
			EnabledByDefault: false,
		},
		{
			ID:               "urlhaus-malware",
			Name:             "URLhaus Malware Filter",
			Description:      "已知恶意软件分发域名",
			URL:              "https://malware-filter.gitlab.io/malware-filter/urlhaus-filter-online.txt",
			Category:         "security",
			Priority:         "high",
			EnabledByDefault: true,
		},
		{
			ID:               CustomListID,
			Name:             "Custom Rules",
			Description:      "本地自定义规则",
			URL:              "", // filled from config.FilterLists.CustomRulesFile
			Category:         "custom",
			Priority:         "low",
			EnabledByDefault: true,
		},
	}
}

func priorityRank(p string) int {
	switch p {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}
