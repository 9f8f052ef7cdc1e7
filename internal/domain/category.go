package domain

type Category struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Thumbnail     string     `json:"thumbnail"`
	SubCategories []Category `json:"subCategories,omitempty"`
}

// FlatCategory is a category tree node with its depth, used for indented pickers.
type FlatCategory struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail"`
	Level     int    `json:"level"`
}

// FlattenCategories walks the tree depth first. Roots are level 0.
func FlattenCategories(categories []Category) []FlatCategory {
	var out []FlatCategory
	flattenInto(&out, categories, 0)
	return out
}

func flattenInto(out *[]FlatCategory, categories []Category, level int) {
	for _, c := range categories {
		*out = append(*out, FlatCategory{ID: c.ID, Name: c.Name, Thumbnail: c.Thumbnail, Level: level})
		if len(c.SubCategories) > 0 {
			flattenInto(out, c.SubCategories, level+1)
		}
	}
}
