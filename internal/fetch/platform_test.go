package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://boards.greenhouse.io/acme/jobs/123", PlatformGreenhouse},
		{"https://job-boards.greenhouse.io/acme/jobs/123", PlatformGreenhouse},
		{"https://jobs.lever.co/acme/abc-def", PlatformLever},
		{"https://acme.wd5.myworkdayjobs.com/en-US/careers/job/123", PlatformWorkday},
		{"https://jobs.ashbyhq.com/acme/123", PlatformAshby},
		{"https://www.linkedin.com/jobs/view/123", PlatformLinkedIn},
		{"https://careers.acme.com/jobs/123", PlatformUnknown},
		{"https://notgreenhouse.io.example.com/", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(tt.url))
		})
	}
}

func TestPlatformContentSelectors(t *testing.T) {
	greenhouse := PlatformContentSelectors(PlatformGreenhouse)
	assert.Equal(t, ".job__description.body", greenhouse[0])
	assert.Contains(t, greenhouse, "main", "generic selectors are kept as a fallback")

	assert.Equal(t, JobPostingSelectors(), PlatformContentSelectors(PlatformUnknown))
}

func TestPlatformNoiseSelectors(t *testing.T) {
	common := PlatformNoiseSelectors(PlatformUnknown)
	assert.Contains(t, common, "form")
	assert.NotContains(t, common, ".posting-apply")

	lever := PlatformNoiseSelectors(PlatformLever)
	assert.Contains(t, lever, "form")
	assert.Contains(t, lever, ".posting-apply")
}
