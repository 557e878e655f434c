package repair

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markdown-repair/internal/types"
)

type repaint struct {
	text  string
	final bool
}

func collect(frames *[]repaint) RepaintFunc {
	return func(r Result, final bool) {
		*frames = append(*frames, repaint{r.Text, final})
	}
}

func TestStream_RepaintsGrowingBuffer(t *testing.T) {
	var frames []repaint
	s := New(nil).NewStream(collect(&frames))

	for _, chunk := range []string{"Sum $a", "+b$ and\n```py", "thon\nprint(1)"} {
		_, err := s.WriteString(chunk)
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	assert.Equal(t, []repaint{
		{"Sum $a$", false},
		{"Sum $a+b$ and\n``` py\n```", false},
		{"Sum $a+b$ and\n``` python\nprint(1)\n```", false},
		{"Sum $a+b$ and\n``` python\nprint(1)\n```", true},
	}, frames)
	assert.Equal(t, "Sum $a+b$ and\n```python\nprint(1)", s.Raw())
}

func TestStream_IntermediateKeepsFinalAnswer(t *testing.T) {
	var frames []repaint
	s := New(nil, WithMode(types.ModeIntermediate)).NewStream(collect(&frames))

	_, err := s.WriteString("### Revised Answer\ndraft\n### Improvements\n- x\n")
	require.NoError(t, err)
	_, err = s.WriteString("### Revised Answer\nAnswer $y\n### Comments\nok")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.Len(t, frames, 3)
	assert.Contains(t, frames[1].text, "### Comments")
	assert.Equal(t, repaint{"\nAnswer $y$\n", true}, frames[2])
	assert.Equal(t, frames[2].text, s.Last().Text)
}

func TestStream_ImproveWaitsForRevisedAnswer(t *testing.T) {
	var frames []repaint
	s := New(nil, WithMode(types.ModeImprove)).NewStream(collect(&frames))

	_, err := s.WriteString("draft\n### Improvements\n")
	require.NoError(t, err)
	assert.Empty(t, frames)

	_, err = s.WriteString("### Revised Answer\nbetter")
	require.NoError(t, err)
	assert.Equal(t, []repaint{{"\nbetter", false}}, frames)
}

func TestStream_ImproveCloseWithoutSections(t *testing.T) {
	var frames []repaint
	s := New(nil, WithMode(types.ModeImprove)).NewStream(collect(&frames))

	_, err := s.WriteString("Here is the answer $x$ without sections.")
	require.NoError(t, err)
	assert.Empty(t, frames)

	require.NoError(t, s.Close())
	assert.Equal(t, []repaint{{"Here is the answer $x$ without sections.", true}}, frames)
	assert.Equal(t, "Here is the answer $x$ without sections.", s.Last().Text)
}

func TestStream_WriteAfterClose(t *testing.T) {
	s := New(nil).NewStream(nil)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	n, err := s.WriteString("late")
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.True(t, types.IsCode(err, types.ErrInvalidInput))
}

func TestStream_ConcurrentWriters(t *testing.T) {
	s := New(nil).NewStream(nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = s.WriteString("x")
			}
		}()
	}
	wg.Wait()
	require.NoError(t, s.Close())

	assert.Equal(t, strings.Repeat("x", 100), s.Raw())
	assert.Equal(t, strings.Repeat("x", 100), s.Last().Text)
}
