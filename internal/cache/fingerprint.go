package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/mkessler/worklog-api/internal/domain"
)

// fingerprintLength is the number of hex characters kept from the digest.
// 32 hex chars (128 bits) is plenty for cache addressing; the fingerprint is
// never used as a security token.
const fingerprintLength = 32

// truncated commit messages keep the fingerprint stable under cosmetic
// message edits beyond this length
const maxMessageChars = 200

// commitTuple is the identity of one commit for fingerprinting purposes.
// Marshalled as a JSON array so the canonical form has no key names.
type commitTuple [3]string

// prTuple is the identity of one pull request for fingerprinting purposes.
type prTuple struct {
	Number    int
	State     string
	UpdatedAt string
}

// MarshalJSON renders the tuple as a JSON array [number, state, updated_at].
func (p prTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Number, p.State, p.UpdatedAt})
}

// Fingerprint computes the order-independent content digest of an
// activity's commit and pull-request identity. Two activities with equal
// commit/PR sets produce the same fingerprint regardless of input ordering;
// changing any sha, message, date, PR state, or PR update time changes it.
func Fingerprint(activity *domain.Activity) string {
	commits := make([]commitTuple, 0, len(activity.Commits))
	for _, c := range activity.Commits {
		msg := strings.TrimSpace(c.Message)
		if len(msg) > maxMessageChars {
			msg = msg[:maxMessageChars]
		}
		commits = append(commits, commitTuple{c.SHA, msg, c.Date})
	}

	prs := make([]prTuple, 0, len(activity.PullRequests))
	for _, pr := range activity.PullRequests {
		prs = append(prs, prTuple{Number: pr.Number, State: pr.State, UpdatedAt: pr.UpdatedAt})
	}

	sort.Slice(commits, func(i, j int) bool {
		a, b := commits[i], commits[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
	sort.Slice(prs, func(i, j int) bool {
		a, b := prs[i], prs[j]
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		if a.State != b.State {
			return a.State < b.State
		}
		return a.UpdatedAt < b.UpdatedAt
	})

	canonical := struct {
		Commits []commitTuple `json:"commits"`
		PRs     []prTuple     `json:"prs"`
	}{Commits: commits, PRs: prs}

	// Marshalling fixed structs is deterministic; an error here would mean
	// a broken runtime, so it is deliberately impossible by construction.
	raw, _ := json.Marshal(canonical)

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
