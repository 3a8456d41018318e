package fetch

import (
	"net/url"
	"strings"
)

// Platform is a known applicant tracking system hosting job postings.
type Platform string

// Recognized platforms.
const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformUnknown    Platform = "unknown"
)

type platformRules struct {
	hosts   []string // host suffixes
	content []string
	noise   []string
}

var platforms = map[Platform]platformRules{
	PlatformGreenhouse: {
		hosts:   []string{"greenhouse.io"},
		content: []string{".job__description.body", ".job__description", ".job-description__content", "#content", ".job-post-container"},
		noise:   []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	},
	PlatformLever: {
		hosts:   []string{"lever.co"},
		content: []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"},
		noise:   []string{".apply-section", ".lever-application-form", ".posting-apply"},
	},
	PlatformWorkday: {
		hosts:   []string{"workday.com", "myworkdayjobs.com"},
		content: []string{"[data-automation-id='jobDescription']", ".job-description"},
		noise:   []string{"[data-automation-id='applyButton']", ".application-section"},
	},
	PlatformAshby: {
		hosts:   []string{"ashbyhq.com"},
		content: []string{"[class*='_descriptionText']", "#overview", "main"},
		noise:   []string{"[class*='_applicationForm']"},
	},
}

// commonNoise is removed on every platform: application forms, EEO text, share widgets.
var commonNoise = []string{
	"form", "#application-form", ".application-form", ".apply-button-container",
	".voluntary-disclosure", ".eeo-statement", ".eeo-section", ".legal-disclosure",
	".social-share", ".share-buttons", ".cookie-consent", ".gdpr-notice",
}

// DetectPlatform identifies the job board from the URL host.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for p, rules := range platforms {
		for _, suffix := range rules.hosts {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return p
			}
		}
	}
	return PlatformUnknown
}

// PlatformContentSelectors returns content selectors for a platform, most specific first.
func PlatformContentSelectors(p Platform) []string {
	if rules, ok := platforms[p]; ok {
		return append(append([]string{}, rules.content...), JobPostingSelectors()...)
	}
	return JobPostingSelectors()
}

// PlatformNoiseSelectors returns selectors removed before text extraction.
func PlatformNoiseSelectors(p Platform) []string {
	noise := append([]string{}, commonNoise...)
	if rules, ok := platforms[p]; ok {
		noise = append(noise, rules.noise...)
	}
	return noise
}
