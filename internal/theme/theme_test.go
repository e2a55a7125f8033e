package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/notification-sync/internal/model"
)

func TestKindStyle(t *testing.T) {
	seen := map[string]model.Kind{}
	for _, kind := range model.Kinds {
		v := KindStyle(kind)
		assert.NotEqual(t, defaultKind.Icon, v.Icon, "kind %s has no icon", kind)
		if other, dup := seen[v.Icon]; dup {
			t.Errorf("kinds %s and %s share icon %s", kind, other, v.Icon)
		}
		seen[v.Icon] = kind
	}
}

func TestKindStyle_Unknown(t *testing.T) {
	assert.Equal(t, defaultKind, KindStyle("payment_failed"))
	assert.Equal(t, defaultKind, KindStyle(""))
}
