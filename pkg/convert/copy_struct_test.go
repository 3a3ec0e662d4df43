package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructAssign(t *testing.T) {
	type src struct {
		Message    string
		PromptText *string
		Config     map[string]interface{}
		Tools      []string
		Extra      string
	}
	type dst struct {
		Message    string
		PromptText *string
		Config     map[string]interface{}
		Tools      []string
	}

	text := "hello"
	in := &src{
		Message:    "update prompt",
		PromptText: &text,
		Config:     map[string]interface{}{"temperature": 0.7},
		Tools:      []string{"search"},
		Extra:      "ignored",
	}

	// 返回值即传入的 dst 指针，可直接断言回具体类型
	out := StructAssign(in, &dst{}).(*dst)
	require.NotNil(t, out)
	assert.Equal(t, "update prompt", out.Message)
	require.NotNil(t, out.PromptText)
	assert.Equal(t, "hello", *out.PromptText)
	assert.Equal(t, map[string]interface{}{"temperature": 0.7}, out.Config)
	assert.Equal(t, []string{"search"}, out.Tools)
}

func TestStructAssignNilPointerFieldStaysNil(t *testing.T) {
	type src struct {
		PromptText *string
	}
	type dst struct {
		PromptText *string
	}

	out := StructAssign(&src{}, &dst{}).(*dst)
	assert.Nil(t, out.PromptText)
}
