// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"io"

	"github.com/petar-djukic/apply-edits/internal/fileview"
)

// Files is the JSON envelope for read results.
type Files struct {
	Files []fileview.Result `json:"files"`
}

// WriteJSON writes v as indented JSON followed by a newline. HTML
// characters are left unescaped so code in search text stays readable.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
