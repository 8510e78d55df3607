package fetcher

import "math/rand/v2"

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// UserAgents is a pool of realistic browser user-agent strings
type UserAgents struct {
	pool []string
}

// NewUserAgents returns a pool; a single fixed agent overrides the defaults
func NewUserAgents(fixed string) *UserAgents {
	if fixed != "" {
		return &UserAgents{pool: []string{fixed}}
	}
	return &UserAgents{pool: defaultUserAgents}
}

// Random picks one agent from the pool
func (u *UserAgents) Random() string {
	return u.pool[rand.IntN(len(u.pool))]
}
