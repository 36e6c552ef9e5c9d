package facemap

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "facemap")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMetadataJSON(t *testing.T) {
	path := writeTemp(t, "default.json", `{
		"d4FaceDown": false,
		"faceCounts": {"d4": 4, "d10": 10, "d100": 10},
		"colliderFaceMap": {
			"d4": {"0": 1, "2": 2, "1": 3, "3": 4},
			"d10": {"0": 8, "1": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 9, "9": 10}
		}
	}`)

	r, err := LoadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if r.Name() != "default" {
		t.Fatalf("name: %s", r.Name())
	}
	if r.D4FaceDown() {
		t.Fatal("d4FaceDown not honored")
	}
	m, err := r.Get(protocol.D100)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Value(9); v != 0 {
		t.Fatalf("derived d100 face 9: %d", v)
	}
	if n := r.FaceCounts()[protocol.D100]; n != 10 {
		t.Fatalf("d100 face count: %d", n)
	}
}

func TestLoadMetadataYAML(t *testing.T) {
	path := writeTemp(t, "smooth.yaml", `
name: smooth
faceCounts:
  d8: 8
colliderFaceMap:
  d8: {1: 1, 6: 2, 5: 3, 0: 4, 2: 5, 4: 6, 7: 7, 3: 8}
`)

	r, err := LoadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if !r.D4FaceDown() {
		t.Fatal("d4FaceDown defaults to true")
	}
	m, err := r.Get(protocol.D8)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Value(7); v != 7 {
		t.Fatalf("d8 face 7: %d", v)
	}
}

func TestLoadMetadataErrors(t *testing.T) {
	tables := map[string]string{
		"missing.json":  `{"name": "no faces"}`,
		"badtype.json":  `{"colliderFaceMap": {"d7": {"0": 1}}}`,
		"negative.json": `{"colliderFaceMap": {"d4": {"0": -1}}}`,
		"garbage.json":  `{"colliderFaceMap": `,
		"short.yaml":    "faceCounts: {d4: 4}\ncolliderFaceMap:\n  d4: {0: 1, 1: 2}\n",
		"empty.yaml":    "",
		"badindex.json": `{"colliderFaceMap": {"d4": {"x": 1}}}`,
		"partial.json":  `{"colliderFaceMap": {"d6": {"0": 1, "1": 2, "2": 3, "3": 4, "4": 5, "5": 6}}}`,
		"unmapped.yaml": "faceCounts: {d4: 4, d8: 8}\ncolliderFaceMap:\n  d4: {0: 1, 1: 2, 2: 3, 3: 4}\n",
	}

	for name, content := range tables {
		_, err := LoadMetadata(writeTemp(t, name, content))
		if !errutil.Is(err, errutil.ErrConfig) {
			t.Fatalf("%s: want config error, got %v", name, err)
		}
	}
}

func TestLoadMetadataMissingFile(t *testing.T) {
	_, err := LoadMetadata(filepath.Join(os.TempDir(), "does-not-exist.json"))
	if !errutil.Is(err, errutil.ErrConfig) {
		t.Fatalf("want config error, got %v", err)
	}
}
