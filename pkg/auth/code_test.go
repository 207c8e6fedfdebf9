package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
)

func TestVerificationCodeValue(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"number", `{"code":123456}`, 123456, false},
		{"string", `{"code":"123456"}`, 123456, false},
		{"short number", `{"code":42}`, 42, false},
		{"zero padded string", `{"code":"000042"}`, 42, false},
		{"zero", `{"code":0}`, 0, false},
		{"max", `{"code":999999}`, 999999, false},
		{"integral float", `{"code":123456.0}`, 123456, false},
		{"exponent", `{"code":1.23456e5}`, 123456, false},
		{"integral float string", `{"code":"123456.0"}`, 123456, false},
		{"fraction in exponent form", `{"code":1.234567e5}`, 0, true},
		{"exponent out of range", `{"code":1e6}`, 0, true},
		{"hex string", `{"code":"0x1E240"}`, 0, true},
		{"infinity string", `{"code":"Inf"}`, 0, true},
		{"missing", `{}`, 0, true},
		{"null", `{"code":null}`, 0, true},
		{"empty string", `{"code":""}`, 0, true},
		{"negative", `{"code":-5}`, 0, true},
		{"too large", `{"code":1000000}`, 0, true},
		{"fraction", `{"code":1.5}`, 0, true},
		{"letters", `{"code":"12ab56"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in struct {
				Code VerificationCode `json:"code"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.body), &in))

			got, err := in.Code.Value()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerificationCodeRejectsNonScalar(t *testing.T) {
	for _, body := range []string{`{"code":true}`, `{"code":[1]}`, `{"code":{"a":1}}`} {
		var in struct {
			Code VerificationCode `json:"code"`
		}
		assert.Error(t, json.Unmarshal([]byte(body), &in), body)
	}
}

func TestCodesMatch(t *testing.T) {
	assert.True(t, codesMatch(42, "000042"))
	assert.True(t, codesMatch(123456, "123456"))
	assert.False(t, codesMatch(42, "000043"))
	assert.False(t, codesMatch(42, "not-a-code"))
	assert.False(t, codesMatch(0, ""))

	n, err := parseCode("1.23456e5")
	require.NoError(t, err)
	assert.True(t, codesMatch(n, "123456"))
}
