package models

import "time"

// PaginationQuery 列表查询的分页参数
type PaginationQuery struct {
	PageNum  int `form:"pageNum" json:"pageNum"`
	PageSize int `form:"pageSize" json:"pageSize"`
}

// Normalize 修正非法的分页参数
func (q PaginationQuery) Normalize() PaginationQuery {
	if q.PageNum < 1 {
		q.PageNum = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	return q
}

// Offset 返回数据库查询偏移量
func (q PaginationQuery) Offset() int {
	return (q.PageNum - 1) * q.PageSize
}

type PaginationResult struct {
	Total    int64 `json:"total"`
	PageNum  int   `json:"pageNum"`
	PageSize int   `json:"pageSize"`
}

type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPaginationResult 创建一个新的分页结果对象
func NewPaginationResult(total int64, query PaginationQuery) PaginationResult {
	return PaginationResult{
		Total:    total,
		PageNum:  query.PageNum,
		PageSize: query.PageSize,
	}
}
