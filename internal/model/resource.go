package model

// Resource 用户上传的学习资料
// swagger:model Resource
type Resource struct {
	BaseModel
	Title          string `gorm:"size:255;not null" json:"title"`
	Description    string `gorm:"type:text" json:"description"`
	FilePath       string `gorm:"size:255;not null" json:"-"` // 存储定位符，不直接暴露
	FileName       string `gorm:"size:255" json:"fileName"`
	FileSize       int64  `gorm:"default:0" json:"fileSize"`
	MimeType       string `gorm:"size:100" json:"mimeType"`
	PointsRequired int    `gorm:"not null;default:0;check:chk_resources_points_required,points_required >= 0" json:"pointsRequired"`
	UploaderID     uint   `gorm:"index;type:bigint unsigned;not null" json:"uploaderId"`
	Uploader       User   `gorm:"foreignKey:UploaderID" json:"-"`
	Views          int    `gorm:"not null;default:0" json:"views"`
	Downloads      int    `gorm:"not null;default:0" json:"downloads"`
	Likes          int    `gorm:"not null;default:0" json:"likes"`
}

func (Resource) TableName() string {
	return "resources"
}
