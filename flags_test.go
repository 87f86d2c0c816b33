package nuxsec

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/nuxsec/hist"
)

func TestBinningFlag(t *testing.T) {
	var b BinningFlag
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&b, "binning", "")

	assert.False(t, b.IsSet())
	require.NoError(t, fs.Parse([]string{"-binning", "20, 0, 2000"}))
	assert.True(t, b.IsSet())
	assert.Equal(t, hist.Binning{N: 20, Low: 0, High: 2000}, b.Binning)
	assert.Equal(t, "20,0,2000", b.String())
}

func TestBinningFlagInvalid(t *testing.T) {
	for _, v := range []string{"", "10", "10,0", "x,0,1", "10,a,1", "10,0,b", "0,0,1", "10,5,5", "10,0,1,2"} {
		var b BinningFlag
		assert.Error(t, b.Set(v), "value %q", v)
		assert.False(t, b.IsSet(), "value %q", v)
	}
}
