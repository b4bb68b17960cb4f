package vm

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-flash/avmore-go/internal/host"
)

func helloWorldCode(t *testing.T) []byte {
	t.Helper()
	// Push("ok"); Trace
	return []byte{
		0x96, 0x04, 0x00, 0x00, 'o', 'k', 0x00,
		0x26,
	}
}

func TestCreateScriptAndRunToCompletion(t *testing.T) {
	h := host.NewLoggingHost()
	machine, err := New(h, 6, 0, nil)
	require.NoError(t, err)

	id := machine.CreateScript(helloWorldCode(t), "main.avm1", "")
	_, thrown, err := machine.RunToCompletion(id)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	assert.Equal(t, []string{"ok"}, h.Logs)
}

func TestRunToCompletionUnknownScriptErrors(t *testing.T) {
	h := host.NewLoggingHost()
	machine, err := New(h, 6, 0, nil)
	require.NoError(t, err)

	_, _, err = machine.RunToCompletion(999)
	assert.Error(t, err)
}

func TestSnapshotReflectsRegisteredScripts(t *testing.T) {
	h := host.NewLoggingHost()
	machine, err := New(h, 6, 0, nil)
	require.NoError(t, err)

	code := helloWorldCode(t)
	id := machine.CreateScript(code, "main.avm1", "_root")
	_, _, err = machine.RunToCompletion(id)
	require.NoError(t, err)

	snap := machine.Snapshot()
	assert.Equal(t, uint8(6), snap.SWFVersion)
	require.Len(t, snap.Scripts, 1)
	assert.Equal(t, uint64(id), snap.Scripts[0].ID)
	assert.Equal(t, "main.avm1", snap.Scripts[0].URI)
	assert.Equal(t, "_root", snap.Scripts[0].Target)
	assert.Equal(t, len(code), snap.Scripts[0].Size)
}

func TestMarshalStateIsDeterministic(t *testing.T) {
	h := host.NewLoggingHost()
	machine, err := New(h, 6, 0, nil)
	require.NoError(t, err)
	machine.CreateScript(helloWorldCode(t), "a.avm1", "")

	snap := machine.Snapshot()
	a, err := MarshalState(snap)
	require.NoError(t, err)
	b, err := MarshalState(snap)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var decoded StateSnapshot
	require.NoError(t, cbor.Unmarshal(a, &decoded))
	assert.Equal(t, snap.SWFVersion, decoded.SWFVersion)
	require.Len(t, decoded.Scripts, 1)
	assert.Equal(t, snap.Scripts[0].Digest, decoded.Scripts[0].Digest)
}

func TestParseConfigDefaultsAndValidation(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"swfVersion": 6}`))
	require.NoError(t, err)
	assert.Equal(t, uint8(6), cfg.SWFVersion)
	assert.Equal(t, 1000, cfg.ActionCap)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseConfigRejectsUnknownField(t *testing.T) {
	_, err := ParseConfig([]byte(`{"swfVersion": 6, "bogus": true}`))
	assert.Error(t, err)
}

func TestParseConfigRejectsOutOfRangeSWFVersion(t *testing.T) {
	_, err := ParseConfig([]byte(`{"swfVersion": 0}`))
	assert.Error(t, err)
}

func TestParseConfigRejectsInvalidLogLevel(t *testing.T) {
	_, err := ParseConfig([]byte(`{"swfVersion": 6, "logLevel": "verbose"}`))
	assert.Error(t, err)
}
