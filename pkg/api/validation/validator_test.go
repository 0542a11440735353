// PicoPlot Core
// Copyright (c) 2026 The PicoPlot Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of PicoPlot Core.
//
// PicoPlot Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// PicoPlot Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with PicoPlot Core.  If not, see <http://www.gnu.org/licenses/>.

package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pathParams struct {
	Path string `json:"path" validate:"required,devicepath"`
}

func TestValidateDevicePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "plain file", path: "main.py"},
		{name: "nested path", path: "lib/sensors/bme280.py"},
		{name: "root", path: "/"},
		{name: "spaces allowed", path: "my file.py"},
		{name: "whitespace only", path: "   ", wantErr: true},
		{name: "embedded nul", path: "main\x00.py", wantErr: true},
		{name: "newline", path: "main\n.py", wantErr: true},
		{name: "delete char", path: "main\x7f.py", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := DefaultValidator.Validate(pathParams{Path: tt.path})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAndUnmarshal(t *testing.T) {
	t.Parallel()

	var dest pathParams
	err := ValidateAndUnmarshal(json.RawMessage(`{"path":"main.py"}`), &dest)
	require.NoError(t, err)
	assert.Equal(t, "main.py", dest.Path)
}

func TestValidateAndUnmarshalMissingParams(t *testing.T) {
	t.Parallel()

	var dest pathParams
	err := ValidateAndUnmarshal(nil, &dest)
	assert.ErrorIs(t, err, ErrMissingParams)
}

func TestValidateAndUnmarshalInvalidJSON(t *testing.T) {
	t.Parallel()

	var dest pathParams
	err := ValidateAndUnmarshal(json.RawMessage(`{not json`), &dest)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestValidateAndUnmarshalRequiredField(t *testing.T) {
	t.Parallel()

	var dest pathParams
	err := ValidateAndUnmarshal(json.RawMessage(`{}`), &dest)
	require.Error(t, err)

	var ve *Error
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "required", ve.Fields[0].Tag)
	assert.Equal(t, "path is required", ve.Fields[0].Message)
}

func TestErrorMessageJoinsFields(t *testing.T) {
	t.Parallel()

	ve := &Error{Fields: []FieldError{
		{Message: "path is required"},
		{Message: "baud must be greater than 0"},
	}}
	assert.Equal(t, "path is required; baud must be greater than 0", ve.Error())

	empty := &Error{}
	assert.Equal(t, "validation failed", empty.Error())
}
