package model

// Comment 资料评论，只有作者本人可以删除
type Comment struct {
	BaseModel
	Content    string `gorm:"type:text;not null" json:"content"`
	UserID     uint   `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	User       User   `gorm:"foreignKey:UserID" json:"-"`
	ResourceID uint   `gorm:"index;type:bigint unsigned;not null" json:"resourceId"`
}

func (Comment) TableName() string {
	return "comments"
}
