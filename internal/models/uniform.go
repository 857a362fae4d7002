package models

// UniformCategory groups the garments a student level must wear.
type UniformCategory struct {
	ID          FlexString    `json:"id"`
	Name        string        `json:"nombre"`
	Description string        `json:"descripcion,omitempty"`
	Items       []UniformItem `json:"uniform_items,omitempty"`
}

// UniformItem is a single garment.
type UniformItem struct {
	ID       FlexString       `json:"id"`
	Name     string           `json:"nombre"`
	Category *UniformCategory `json:"uniform_categories,omitempty"`
}

// UniformSize is a registered size for one garment of a student.
type UniformSize struct {
	ID       FlexString   `json:"id"`
	Size     string       `json:"talla"`
	Quantity int          `json:"cantidad"`
	Item     *UniformItem `json:"uniform_items,omitempty"`
}

// UniformSizeInput is one entry of the sizes form.
type UniformSizeInput struct {
	ItemID   string `json:"item_id" validate:"required"`
	Size     string `json:"talla" validate:"required"`
	Quantity int    `json:"cantidad"`
}
