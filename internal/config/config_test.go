package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMem struct {
	writes map[uint16]uint8
}

func newFakeMem() *fakeMem { return &fakeMem{writes: map[uint16]uint8{}} }

func (m *fakeMem) Write8(addr uint16, data uint8) { m.writes[addr] = data }

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	h, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Nil(t, h.InitialPC)
	assert.Nil(t, h.InitialSP)
	assert.Empty(t, h.Fixups)
}

func TestLoadParsesHarness(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harness.yaml")
	contents := `
initial_pc: 0x0200
initial_sp: 0x01FF
fixups:
  - address: 0x0200
    data: "A9 01 8D 00 02"
  - address: 0x0300
    data: "EA-EA"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	h, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, h.InitialPC)
	require.NotNil(t, h.InitialSP)
	assert.Equal(t, uint16(0x0200), *h.InitialPC)
	assert.Equal(t, uint16(0x01FF), *h.InitialSP)
	require.Len(t, h.Fixups, 2)

	data0, err := h.Fixups[0].Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA9, 0x01, 0x8D, 0x00, 0x02}, data0)

	data1, err := h.Fixups[1].Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEA, 0xEA}, data1)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("initial_pc: [not, a, scalar]"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFixupBytesRejectsInvalidHex(t *testing.T) {
	f := Fixup{Address: 0x0000, Data: "ZZ"}
	_, err := f.Bytes()
	assert.Error(t, err)
}

func TestApplyWritesFixupsInOrder(t *testing.T) {
	h := Harness{
		Fixups: []Fixup{
			{Address: 0x0200, Data: "0102"},
			{Address: 0x0201, Data: "FF"},
		},
	}
	mem := newFakeMem()
	require.NoError(t, h.Apply(mem))
	assert.Equal(t, uint8(0x01), mem.writes[0x0200])
	assert.Equal(t, uint8(0xFF), mem.writes[0x0201])
}
