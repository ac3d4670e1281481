package castore

import "time"

// Model is the audit shape every cached entity embeds.
// ID 0 means the record has not been persisted yet.
type Model struct {
	ID         int64     `json:"id" bun:"id,pk,autoincrement"`
	DelFlag    int       `json:"delFlag" bun:"del_flag,notnull,default:0"`
	CreateTime time.Time `json:"createTime" bun:"create_time,nullzero"`
	UpdateTime time.Time `json:"updateTime" bun:"update_time,nullzero"`
	UpdateBy   int64     `json:"updateBy" bun:"update_by"`
}

// Soft-delete flag values.
const (
	Live    = 0
	Deleted = 1
)

func (m *Model) GetModel() *Model { return m }

// Record is implemented by pointers to structs embedding Model.
type Record interface {
	GetModel() *Model
}

func isNil[T Record](rec T) bool {
	var zero T
	return any(rec) == any(zero) || rec.GetModel() == nil
}
