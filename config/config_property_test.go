package config

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/cherbst/devblog/env"
)

func TestOriginProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	root := t.TempDir()

	properties.Property("origin drops path and query", prop.ForAll(
		func(host, path string, port int) bool {
			raw := "https://" + host + ":" + strconv.Itoa(port) + path + "?q=1"
			got, err := Origin(raw)
			if err != nil {
				return false
			}
			want := "https://" + host
			if port != 443 {
				want += ":" + strconv.Itoa(port)
			}
			return got == want
		},
		gen.RegexMatch(`^[a-z][a-z0-9]{0,10}\.(com|dev|org)$`),
		gen.RegexMatch(`^(/[a-z0-9]{1,8}){0,3}$`),
		gen.IntRange(1, 65535),
	))

	properties.Property("leading zeros in the port are not significant", prop.ForAll(
		func(zeros string, port int) bool {
			a, errA := Origin("http://example.com:" + zeros + strconv.Itoa(port))
			b, errB := Origin("http://example.com:" + strconv.Itoa(port))
			return errA == nil && errB == nil && a == b
		},
		gen.RegexMatch(`^0{1,3}$`),
		gen.IntRange(1, 65535),
	))

	properties.Property("site metadata origin matches Origin", prop.ForAll(
		func(host, path string) bool {
			raw := "http://" + host + path
			site, err := LoadSite(env.FromMap("prd", map[string]string{"SITE": raw}), root)
			if err != nil {
				return false
			}
			return site.URL == "http://"+host
		},
		gen.RegexMatch(`^[a-z][a-z0-9-]{0,10}[a-z0-9]\.example$`),
		gen.RegexMatch(`^(/[a-z0-9]{1,8}){0,3}$`),
	))

	properties.TestingRun(t)
}

func TestPortProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("numeric ports parse to themselves", prop.ForAll(
		func(n int) bool {
			return ParsePort(strconv.Itoa(n)) == n
		},
		gen.IntRange(1, 65535),
	))

	properties.Property("non-numeric ports fall back to default", prop.ForAll(
		func(raw string) bool {
			return ParsePort(raw) == DefaultPort
		},
		gen.RegexMatch(`^[a-zA-Z_][a-zA-Z0-9_]{0,12}$`),
	))

	properties.TestingRun(t)
}
