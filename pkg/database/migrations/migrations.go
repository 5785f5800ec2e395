package migrations

import (
	"vboard/app/models/order"
	"vboard/app/models/user"
)

// RegisterTables 返回需要迁移的表的模型列表
func RegisterTables() []interface{} {
	return []interface{}{
		&user.User{},
		&order.Order{},
	}
}
