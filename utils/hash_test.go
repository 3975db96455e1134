package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityID(t *testing.T) {
	a := EntityID("User", "1")
	assert.Equal(t, a, EntityID("User", "1"))
	assert.NotEqual(t, a, EntityID("User", "2"))
	assert.NotEqual(t, a, EntityID("Order", "1"))
	assert.Equal(t, U64("User:1"), a)
}

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name     string
		a, b     [2]string
		expected bool
	}{
		{"same input", [2]string{"postgres", "u from User u"}, [2]string{"postgres", "u from User u"}, true},
		{"other dialect", [2]string{"postgres", "u from User u"}, [2]string{"mysql", "u from User u"}, false},
		{"other source", [2]string{"postgres", "u from User u"}, [2]string{"postgres", "x from User x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equal := Fingerprint(tt.a[0], tt.a[1]) == Fingerprint(tt.b[0], tt.b[1])
			assert.Equal(t, tt.expected, equal)
		})
	}
}

func TestMix64Order(t *testing.T) {
	a, b := U64("where"), U64("order")
	assert.NotEqual(t, Mix64(a, b), Mix64(b, a))
	assert.Equal(t, Mix64(a, b), Mix64(a, b))
}
