package convert

import (
	"github.com/jinzhu/copier"
)

// StructAssign 将 src 中与 dst 同名字段的值复制到 dst，返回 dst
func StructAssign(src any, dst any) any {
	_ = copier.Copy(dst, src)
	return dst
}
