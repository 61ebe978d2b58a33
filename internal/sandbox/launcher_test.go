package sandbox

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRunValidatesRootfsDir(t *testing.T) {
	_, err := Run(RunOptions{Cmd: []string{"/bin/true"}})
	if err == nil {
		t.Fatal("expected an error for a missing RootfsDir")
	}
}

func TestRunValidatesCmd(t *testing.T) {
	_, err := Run(RunOptions{RootfsDir: "/tmp"})
	if err == nil {
		t.Fatal("expected an error for a missing Cmd")
	}
}

func TestRunOptionsStdioDefaults(t *testing.T) {
	var o RunOptions
	if o.stdin() == nil || o.stdout() == nil || o.stderr() == nil {
		t.Error("expected stdio accessors to default to os.Stdin/Stdout/Stderr")
	}
}

// TestInitSockPairCarriesBootstrapConfig exercises the same handshake
// Run performs: open a pair, JSON-encode an initConfig over one end,
// and decode it back on the other, the way the inner process does over
// fd 3.
func TestInitSockPairCarriesBootstrapConfig(t *testing.T) {
	parent, child, err := newInitSockPair()
	if err != nil {
		t.Fatalf("newInitSockPair: %v", err)
	}
	defer parent.Close()
	defer child.Close()

	want := initConfig{
		RootfsDir:   "/tmp/rootfs",
		Cmd:         []string{"/app/hello"},
		WorkDir:     "/app",
		Env:         map[string]string{"FOO": "bar"},
		MemoryLimit: "64m",
		CgroupID:    "test-container",
	}
	if err := json.NewEncoder(parent).Encode(want); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got initConfig
	if err := json.NewDecoder(child).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-tripped config = %+v, want %+v", got, want)
	}
}
