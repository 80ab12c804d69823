package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_BlocksToMarkup_Separates_Paragraphs(t *testing.T) {
	t.Parallel()

	got := blocksToMarkup([]block{
		{level: 1, text: "Report"},
		{text: "  "},
		{text: "Sales & costs "},
		{level: 2, text: "Q1"},
		{text: "Up <10%>"},
	})

	assert.Equal(t, `<note-content version="0.1"><size:huge>Report</size:huge>`+"\n\n"+
		`Sales &amp; costs`+"\n\n"+
		`<size:large>Q1</size:large>`+"\n\n"+
		`Up &lt;10%&gt;</note-content>`, got)
}

func Test_BlocksToMarkup_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `<note-content version="0.1"></note-content>`, blocksToMarkup(nil))
}
