package modfile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// buildImage assembles a minimal ELF64 relocatable image whose
// .modinfo section holds the given records, each NUL-terminated.
func buildImage(t *testing.T, records []string) []byte {
	t.Helper()

	var modinfo bytes.Buffer
	for _, r := range records {
		modinfo.WriteString(r)
		modinfo.WriteByte(0)
	}
	shstrtab := []byte("\x00.modinfo\x00.shstrtab\x00")

	const ehsize = 64
	modinfoOff := uint64(ehsize)
	strtabOff := modinfoOff + uint64(modinfo.Len())
	shoff := strtabOff + uint64(len(shstrtab))

	le := binary.LittleEndian
	var buf bytes.Buffer
	buf.Write([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	binary.Write(&buf, le, uint16(elf.ET_REL))
	binary.Write(&buf, le, uint16(elf.EM_X86_64))
	binary.Write(&buf, le, uint32(elf.EV_CURRENT))
	binary.Write(&buf, le, uint64(0)) // entry
	binary.Write(&buf, le, uint64(0)) // phoff
	binary.Write(&buf, le, shoff)
	binary.Write(&buf, le, uint32(0))      // flags
	binary.Write(&buf, le, uint16(ehsize)) // ehsize
	binary.Write(&buf, le, uint16(0))      // phentsize
	binary.Write(&buf, le, uint16(0))      // phnum
	binary.Write(&buf, le, uint16(64))     // shentsize
	binary.Write(&buf, le, uint16(3))      // shnum
	binary.Write(&buf, le, uint16(2))      // shstrndx

	buf.Write(modinfo.Bytes())
	buf.Write(shstrtab)

	type shdr struct {
		Name           uint32
		Type           uint32
		Flags, Addr    uint64
		Off, Size      uint64
		Link, Info     uint32
		Align, Entsize uint64
	}
	sections := []shdr{
		{},
		{Name: 1, Type: uint32(elf.SHT_PROGBITS), Off: modinfoOff, Size: uint64(modinfo.Len()), Align: 1},
		{Name: 10, Type: uint32(elf.SHT_STRTAB), Off: strtabOff, Size: uint64(len(shstrtab)), Align: 1},
	}
	for _, sh := range sections {
		binary.Write(&buf, le, sh)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestInfo(t *testing.T) {
	image := buildImage(t, []string{
		"license=GPL",
		"author=Someone",
		"parm=size:module size",
	})
	path := writeFile(t, "fake.ko", image)

	pairs, err := New(path).Info()
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("pairs = %d, want 3", len(pairs))
	}
	if pairs[0].Key != "license" || pairs[0].Value != "GPL" {
		t.Errorf("pairs[0] = %+v, want license=GPL", pairs[0])
	}
	if pairs[2].Key != "parm" || pairs[2].Value != "size:module size" {
		t.Errorf("pairs[2] = %+v, want parm record", pairs[2])
	}
}

func TestInfo_Gzip(t *testing.T) {
	image := buildImage(t, []string{"license=GPL"})

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(image); err != nil {
		t.Fatalf("compressing: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
	path := writeFile(t, "fake.ko.gz", compressed.Bytes())

	pairs, err := New(path).Info()
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Value != "GPL" {
		t.Errorf("pairs = %+v, want single license record", pairs)
	}
}

func TestInfo_Zstd(t *testing.T) {
	image := buildImage(t, []string{"license=GPL"})

	var compressed bytes.Buffer
	zw, err := zstd.NewWriter(&compressed)
	if err != nil {
		t.Fatalf("creating zstd writer: %v", err)
	}
	if _, err := zw.Write(image); err != nil {
		t.Fatalf("compressing: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zstd writer: %v", err)
	}
	path := writeFile(t, "fake.ko.zst", compressed.Bytes())

	pairs, err := New(path).Info()
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Value != "GPL" {
		t.Errorf("pairs = %+v, want single license record", pairs)
	}
}

func TestInfo_XzRejected(t *testing.T) {
	path := writeFile(t, "fake.ko.xz", []byte("\xfd7zXZ\x00"))

	if _, err := New(path).Info(); err == nil {
		t.Fatal("Info() error = nil, want unsupported-compression failure")
	}
}

func TestInfo_NotAModule(t *testing.T) {
	path := writeFile(t, "fake.ko", []byte("not an ELF image"))

	if _, err := New(path).Info(); err == nil {
		t.Fatal("Info() error = nil, want parse failure")
	}
}

func TestInfo_NoModinfoSection(t *testing.T) {
	image := buildImage(t, nil)
	// Rename the section away by corrupting the string table entry.
	copy(image[bytes.Index(image, []byte(".modinfo")):], ".notinfo")
	path := writeFile(t, "fake.ko", image)

	if _, err := New(path).Info(); err == nil {
		t.Fatal("Info() error = nil, want missing-section failure")
	}
}

func TestInfo_MissingFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "absent.ko")).Info(); err == nil {
		t.Fatal("Info() error = nil, want open failure")
	}
}

func TestNameOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/lib/modules/6.1.0/kernel/drivers/block/loop.ko", "loop"},
		{"/lib/modules/6.1.0/kernel/net/snd-hda-intel.ko.gz", "snd_hda_intel"},
		{"ext4.ko.zst", "ext4"},
		{"dm-crypt.ko.xz", "dm_crypt"},
	}
	for _, tt := range tests {
		if got := NameOf(tt.path); got != tt.want {
			t.Errorf("NameOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseModinfo_DropsMalformedRecords(t *testing.T) {
	raw := []byte("license=GPL\x00garbage\x00\x00author=X\x00")

	pairs := parseModinfo(raw)
	if len(pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(pairs))
	}
	if pairs[1].Key != "author" || pairs[1].Value != "X" {
		t.Errorf("pairs[1] = %+v, want author=X", pairs[1])
	}
}
