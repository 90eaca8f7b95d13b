package hybridrec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rushteam/hybridrec/recall"
)

func TestFacade(t *testing.T) {
	r := New(Options{
		Collaborative: recall.Static("collaborative", "a", "b", "c"),
		Content:       recall.Static("content", "x", "a"),
	})
	res := r.Recommend(context.Background(), Request{UserID: "1", AnchorItemID: "a", TopN: 3, Scene: "detail"})
	// 没有元数据源时不重排：content 主 floor(2.1)=2 -> x，再由协同补齐
	assert.Equal(t, []string{"x", "b", "c"}, res.IDs())
	assert.Equal(t, 0.7, res.Policy.Ratio)
}
