package crud

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Ref is a related resource decoded from a JSON:API relationship.
type Ref struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Username      string `json:"username"`
	ReferenceCode string `json:"referenceCode"`
}

// RefID is the ID of r, or "" when r is nil.
func (r *Ref) RefID() string {
	if r == nil {
		return ""
	}
	return r.ID
}

// Label is the display text of r.
func (r *Ref) Label() string {
	if r == nil {
		return ""
	}
	if r.Name != "" {
		return r.Name
	}
	if full := strings.TrimSpace(r.FirstName + " " + r.LastName); full != "" {
		return full
	}
	if r.Username != "" {
		return r.Username
	}
	if r.ReferenceCode != "" {
		return r.ReferenceCode
	}
	return r.ID
}

// IDs lists the IDs of refs.
func IDs(refs []Ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}

// Labels joins the labels of refs.
func Labels(refs []Ref) string {
	out := make([]string, 0, len(refs))
	for i := range refs {
		out = append(out, refs[i].Label())
	}
	return strings.Join(out, ", ")
}

// YesNo renders a boolean cell.
func YesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// Count renders a collection size.
func Count[T any](items []T) string {
	return strconv.Itoa(len(items))
}

// OrgScope is the organization that bounds option lists for the request.
// Administrators see every organization.
func OrgScope(r *http.Request) string {
	profile, ok := shared.ProfileFromContext(r.Context())
	if !ok || profile.IsAdmin() {
		return ""
	}
	return profile.OrganizationID
}

// Bool encodes a checkbox value.
func Bool(v bool) string {
	return strconv.FormatBool(v)
}

// Text decodes any JSON scalar as its string form, for attributes the
// backend sends as strings or booleans depending on the record.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*t = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(raw)
	}
	return nil
}

// String returns the text, rendering booleans as Yes/No.
func (t Text) String() string {
	switch t {
	case "true":
		return "Yes"
	case "false":
		return "No"
	}
	return string(t)
}
