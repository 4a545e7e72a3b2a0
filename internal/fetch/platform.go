package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformLinkedIn   Platform = "linkedin"
	PlatformUnknown    Platform = "unknown"
)

type platformRule struct {
	hosts   []string
	content []string
	noise   []string
}

var platformRules = map[Platform]platformRule{
	PlatformGreenhouse: {
		hosts:   []string{"greenhouse.io"},
		content: []string{".job__description.body", ".job__description", "#content", ".job-post-container"},
		noise:   []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	},
	PlatformLever: {
		hosts:   []string{"lever.co"},
		content: []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"},
		noise:   []string{".apply-section", ".lever-application-form", ".posting-apply"},
	},
	PlatformWorkday: {
		hosts:   []string{"workday.com", "myworkdayjobs.com"},
		content: []string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']", ".job-description"},
		noise:   []string{"[data-automation-id='applyButton']", ".application-section"},
	},
	PlatformAshby: {
		hosts:   []string{"ashbyhq.com"},
		content: []string{"[class*='_descriptionText']", "[class*='ashby-job-posting']", "main"},
		noise:   []string{"[class*='_applicationForm']"},
	},
	PlatformLinkedIn: {
		hosts:   []string{"linkedin.com"},
		content: []string{".show-more-less-html__markup", ".description__text", ".jobs-description"},
		noise:   []string{".sign-in-modal", ".join-form", ".similar-jobs"},
	},
}

// commonPostingNoise is removed from postings of every platform.
var commonPostingNoise = []string{
	"form",
	"#application-form",
	".application-form",
	".apply-button-container",
	"[data-testid='application-form']",
	".voluntary-disclosure",
	".eeo-statement",
	".eeo-section",
	".legal-disclosure",
	".self-identification",
	".social-share",
	".share-buttons",
	".cookie-consent",
	".gdpr-notice",
}

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for platform, rule := range platformRules {
		for _, h := range rule.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return platform
			}
		}
	}
	return PlatformUnknown
}

// PlatformContentSelectors returns content selectors for a platform, most specific first.
// Generic job posting selectors are appended as a fallback.
func PlatformContentSelectors(platform Platform) []string {
	rule, ok := platformRules[platform]
	if !ok {
		return JobPostingSelectors()
	}
	out := make([]string, 0, len(rule.content)+len(JobPostingSelectors()))
	out = append(out, rule.content...)
	return append(out, JobPostingSelectors()...)
}

// PlatformNoiseSelectors returns noise exclusion selectors for a platform.
func PlatformNoiseSelectors(platform Platform) []string {
	out := make([]string, 0, len(commonPostingNoise)+4)
	out = append(out, commonPostingNoise...)
	if rule, ok := platformRules[platform]; ok {
		out = append(out, rule.noise...)
	}
	return out
}
