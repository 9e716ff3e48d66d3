package devices

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"bitbang/hw/endian"
	"bitbang/hw/hwio"
)

func TestLayouts(t *testing.T) {
	if diff := cmp.Diff([]string{"my16bit", "my32bit", "my8bit"}, LayoutNames()); diff != "" {
		t.Errorf("LayoutNames() mismatch (-want +got):\n%s", diff)
	}

	l, ok := LayoutByName("my16bit")
	if !ok {
		t.Fatal("my16bit layout not found")
	}
	if l.Width != 16 || l.Size != 8 || l.Base != 0x08000000 {
		t.Errorf("my16bit = %d-bit, size %d, base %#x", l.Width, l.Size, l.Base)
	}
	if len(l.Fields) != 12 {
		t.Fatalf("my16bit has %d fields, want 12", len(l.Fields))
	}
	if diff := cmp.Diff(hwio.Field{Name: "bitfield3", Reg: 0, Lo: 3, Hi: 5}, l.Fields[3]); diff != "" {
		t.Errorf("bitfield3 mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigLayout(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, `
[[device]]
name   = "dev"
layout = "my32bit"

[[device]]
name   = "mapped"
layout = "my8bit"
path   = "/dev/mem"
`))
	if err != nil {
		t.Fatal(err)
	}

	dev := cfg.Devices[0]
	if dev.Width != 32 || dev.Size != 8 || dev.Offset != 0 {
		t.Errorf("dev: width %d, size %d, offset %#x", dev.Width, dev.Size, dev.Offset)
	}
	if diff := cmp.Diff(FieldConfig{Name: "bitfield1", Reg: 0, Bits: "0"}, dev.Fields[1]); diff != "" {
		t.Errorf("bitfield1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(FieldConfig{Name: "bitfield4", Reg: 0, Bits: "6:7"}, dev.Fields[4]); diff != "" {
		t.Errorf("bitfield4 mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.Devices[1].Offset; got != 0x08000000 {
		t.Errorf("mapped offset = %#x, want 0x08000000", got)
	}
}

func TestConfigLayoutErrors(t *testing.T) {
	for _, content := range []string{
		"[[device]]\nname = \"a\"\nlayout = \"nope\"\n",
		"[[device]]\nname = \"a\"\nlayout = \"my8bit\"\nwidth = 16\n",
	} {
		if _, err := LoadConfig(writeFile(t, content)); err == nil {
			t.Errorf("LoadConfig(%q) succeeded, want error", content)
		}
	}
}

func TestOpenBoardLayout(t *testing.T) {
	cfg := Config{Devices: []DeviceConfig{{Name: "d", Layout: "my16bit"}}}
	b, err := OpenBoard("test", cfg, endian.HostNative, false)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if cfg.Devices[0].Width != 0 {
		t.Error("OpenBoard modified the caller configuration")
	}

	f, ok := b.Field("d", "bitfield2")
	if !ok {
		t.Fatal("bitfield2 not found")
	}
	dev, _ := b.Lookup("d")
	if err := dev.SetBitfield(f.Reg, f.Lo, f.Hi, 3); err != nil {
		t.Fatal(err)
	}
	if got, _ := dev.Register(0); got != 0b110 {
		t.Errorf("Register(0) = %#b, want 0b110", got)
	}
}
