package web

import (
	"net/url"
	"sort"

	"github.com/thriftstock/thriftstock/internal/shared"
)

// confirmData drives the shared confirmation page. Fields are re-posted as
// hidden inputs together with confirm=yes.
type confirmData struct {
	Heading   string
	Message   string
	Action    string
	Fields    []hiddenField
	CancelURL string
	Danger    bool
}

type hiddenField struct {
	Name  string
	Value string
}

// hiddenFields echoes a submitted form minus the CSRF token and the
// confirmation flag, in a stable order.
func hiddenFields(form url.Values) []hiddenField {
	keys := make([]string, 0, len(form))
	for k := range form {
		if k == shared.CSRFFormField || k == "confirm" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []hiddenField
	for _, k := range keys {
		for _, v := range form[k] {
			out = append(out, hiddenField{Name: k, Value: v})
		}
	}
	return out
}
