package cpf

import (
	"testing"

	"github.com/cpfhost/cpf/internal/discover"
)

func TestDefaultOptionsExtensionMatchesDiscoverDefault(t *testing.T) {
	if got := defaultOptions().extension; got != discover.Extension {
		t.Fatalf("default extension %q does not match discover.Extension %q", got, discover.Extension)
	}
}

func TestWithPluginExtensionOverridesOption(t *testing.T) {
	o := defaultOptions()
	WithPluginExtension(".dylib")(&o)
	if o.extension != ".dylib" {
		t.Fatalf("expected extension .dylib, got %q", o.extension)
	}
}
