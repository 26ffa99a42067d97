package model

import "fmt"

// Post is a feed entry. Author and AuthorAvatar are copied from the author at
// creation time and never follow later profile changes.
type Post struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	Emoji        string `json:"emoji"`
	Author       string `json:"author"`
	AuthorAvatar string `json:"authorAvatar"`
	Timestamp    int64  `json:"timestamp"` // unix milliseconds, sort key
	Likes        int    `json:"likes"`
	Comments     int    `json:"comments"`
	Shares       int    `json:"shares"`
}

// Stat names one of a post's interaction counters.
type Stat string

const (
	StatLikes    Stat = "likes"
	StatComments Stat = "comments"
	StatShares   Stat = "shares"
)

// Stats lists every counter a post carries.
var Stats = []Stat{StatLikes, StatComments, StatShares}

// ParseStat accepts a counter name ("likes") or the interaction verb that
// bumps it ("like").
func ParseStat(s string) (Stat, error) {
	switch s {
	case "likes", "like":
		return StatLikes, nil
	case "comments", "comment":
		return StatComments, nil
	case "shares", "share":
		return StatShares, nil
	}
	return "", fmt.Errorf("model: unknown post stat %q", s)
}

// Increment bumps the named counter by one.
func (p *Post) Increment(stat Stat) error {
	switch stat {
	case StatLikes:
		p.Likes++
	case StatComments:
		p.Comments++
	case StatShares:
		p.Shares++
	default:
		return fmt.Errorf("model: unknown post stat %q", stat)
	}
	return nil
}

// Count returns the value of the named counter.
func (p *Post) Count(stat Stat) int {
	switch stat {
	case StatLikes:
		return p.Likes
	case StatComments:
		return p.Comments
	case StatShares:
		return p.Shares
	}
	return 0
}
