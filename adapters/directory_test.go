package adapters

import (
	"testing"

	"github.com/indexnet/gateway/gtypes"
)

func TestStaticDirectoryReplaceAndResolve(t *testing.T) {
	d := NewStaticDirectory()
	if _, ok := d.Resolve("unknown"); ok {
		t.Fatal("expected no match before Replace")
	}

	var dep gtypes.DeploymentId
	dep[31] = 5
	d.Replace(map[string]gtypes.DeploymentId{"my-subgraph": dep})

	got, ok := d.Resolve("my-subgraph")
	if !ok || got != dep {
		t.Errorf("Resolve(my-subgraph) = %v, %v, want %v, true", got, ok, dep)
	}
}
