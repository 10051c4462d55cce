package assembly

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/feassemble/utils"
)

func TestTripletBuffer(t *testing.T) {
	{ // Never started
		var tb TripletBuffer
		assert.False(t, tb.Started())
		assert.Equal(t, 0, tb.Count())
		assert.ErrorIs(t, tb.Merge(&TripletBuffer{}), ErrConfiguration)
	}
	{ // Append grows by GrowthFactor slots per incoming triplet and keeps data
		var tb TripletBuffer
		tb.Reserve(2, false)
		tb.Append(1, 1, 1)
		tb.Append(2, 2, 2)
		assert.Equal(t, 2, tb.Len())
		tb.Append(3, 3, 3)
		assert.Equal(t, 2+GrowthFactor, tb.Len())
		assert.Equal(t, 1, tb.Growths)
		assert.Equal(t, []int{1, 2, 3}, tb.Rows[:tb.Count()])
		assert.Equal(t, []float64{1, 2, 3}, tb.Vals[:tb.Count()])
		assert.Equal(t, 4, tb.Pointer)
	}
	{ // Compact drops ignorable and out of range triplets in place
		var tb TripletBuffer
		tb.Reserve(6, false)
		tb.Append(1, 2, 10)
		tb.Append(0, 2, 20)
		tb.Append(2, -1, 30)
		tb.Append(3, 1, 40)
		tb.Append(5, 1, 50)
		n := tb.Compact(4, 4)
		assert.Equal(t, 2, n)
		assert.Equal(t, []int{1, 3}, tb.Rows[:n])
		assert.Equal(t, []int{2, 1}, tb.Cols[:n])
		assert.Equal(t, []float64{10, 40}, tb.Vals[:n])
		assert.Equal(t, 6, tb.Pointer)
	}
	{ // FillTail clears everything past the cursor
		var tb TripletBuffer
		tb.Reserve(4, false)
		tb.Rows[3], tb.Cols[3], tb.Vals[3] = 7, 7, 7
		tb.Append(1, 1, 1)
		tb.FillTail()
		assert.Equal(t, []int{1, 0, 0, 0}, tb.Rows)
		assert.Equal(t, []float64{1, 0, 0, 0}, tb.Vals)
	}
	{ // Merge appends the active range only, growing exactly
		var a, b TripletBuffer
		a.Reserve(1, false)
		b.Reserve(10, false)
		a.Append(1, 1, 1)
		b.Append(2, 2, 2)
		b.Append(3, 3, 3)
		require.NoError(t, a.Merge(&b))
		assert.Equal(t, 3, a.Len())
		assert.Equal(t, 3, a.Count())
		assert.Equal(t, []int{1, 2, 3}, a.Rows)
		assert.Equal(t, 0, a.Growths)
		assert.Equal(t, 2, b.Count())
	}
}

func TestGrowthLogger(t *testing.T) {
	var (
		out bytes.Buffer
		g   = NewGeneral(WithLogger(log.New(&out, "", 0)))
	)
	g.Start(1, 1, 1, 2, 2)
	for k := 0; k < 3; k++ {
		require.NoError(t, g.Assemble(mat.NewDense(1, 1, []float64{1}), utils.Index{1}, utils.Index{2}))
	}
	assert.Contains(t, out.String(), "growing to 1001")
	S, err := g.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 3., S.At(0, 1))
}
