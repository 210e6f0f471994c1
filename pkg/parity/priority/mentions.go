package priority

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/gomlx/opparity/pkg/parity"
	"github.com/pkg/errors"
)

// Mention is a raw community mention: a comment by a reporter, with an optional number of positive
// signals (thumbs-up reactions).
type Mention struct {
	// ID identifies the mention. If empty, the mention is identified by reporter, creation time and body.
	ID string

	Reporter  string
	Body      string
	Thumbs    int
	CreatedAt time.Time
	Link      string
}

// key identifying the mention for deduplication.
func (m Mention) key() string {
	if m.ID != "" {
		return m.ID
	}
	return m.Reporter + "|" + m.CreatedAt.UTC().Format(time.RFC3339) + "|" + m.Body
}

// jsonMention accepts both the normalized format and the issue-comment export format
// (with "user.login", "reactions.+1", "created_at" and "html_url").
type jsonMention struct {
	ID       json.RawMessage `json:"id"`
	Reporter string          `json:"reporter"`
	User     *struct {
		Login string `json:"login"`
	} `json:"user"`
	Body      string         `json:"body"`
	Thumbs    *int           `json:"thumbs"`
	Reactions map[string]int `json:"reactions"`
	CreatedAt string         `json:"created_at"`
	Link      string         `json:"link"`
	HTMLURL   string         `json:"html_url"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mention) UnmarshalJSON(data []byte) error {
	var raw jsonMention
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Mention{
		ID:       strings.Trim(string(bytes.TrimSpace(raw.ID)), `"`),
		Reporter: raw.Reporter,
		Body:     raw.Body,
		Link:     raw.Link,
	}
	if m.ID == "null" {
		m.ID = ""
	}
	if m.Reporter == "" && raw.User != nil {
		m.Reporter = raw.User.Login
	}
	if m.Reporter == "" {
		m.Reporter = "unknown"
	}
	if raw.Thumbs != nil {
		m.Thumbs = *raw.Thumbs
	} else {
		m.Thumbs = raw.Reactions["+1"]
	}
	if m.Link == "" {
		m.Link = raw.HTMLURL
	}
	m.CreatedAt = time.Unix(0, 0).UTC()
	if raw.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339, raw.CreatedAt)
		if err != nil {
			return errors.Wrapf(err, "invalid created_at for mention %q", m.ID)
		}
		m.CreatedAt = createdAt
	}
	return nil
}

// ParseMentions parses a JSON array of mentions.
func ParseMentions(data []byte) ([]Mention, error) {
	var mentions []Mention
	if err := json.Unmarshal(data, &mentions); err != nil {
		return nil, errors.Wrap(err, "failed to parse mentions")
	}
	return mentions, nil
}

// LoadMentions reads a JSON array of mentions exported from the discussion threads.
// Failures are returned as a parity.RetrievalError.
func LoadMentions(path string) ([]Mention, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &parity.RetrievalError{Source: path, Err: err}
	}
	mentions, err := ParseMentions(data)
	if err != nil {
		return nil, &parity.RetrievalError{Source: path, Err: err}
	}
	return mentions, nil
}
