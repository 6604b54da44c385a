// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"context"
	"errors"
	"testing"

	"github.com/bassosimone/errclass"
	"github.com/stretchr/testify/assert"
)

func TestDefaultErrClassifier(t *testing.T) {
	// Should return empty string for nil error
	assert.Equal(t, "", DefaultErrClassifier.Classify(nil))

	// Should classify known errors using errclass
	assert.Equal(t, errclass.ETIMEDOUT, DefaultErrClassifier.Classify(context.DeadlineExceeded))

	// Should return EGENERIC for unknown errors
	assert.Equal(t, errclass.EGENERIC, DefaultErrClassifier.Classify(errors.New("unknown error")))
}

func TestErrClassifierFunc(t *testing.T) {
	classifier := ErrClassifierFunc(func(err error) string {
		if errors.Is(err, ErrVeto) {
			return "EVETO"
		}
		return ""
	})
	assert.Equal(t, "EVETO", classifier.Classify(Veto("blocked")))
	assert.Equal(t, "", classifier.Classify(errMocked))
}
