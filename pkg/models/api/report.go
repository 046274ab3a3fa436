package api

type Region struct {
	Code        string `json:"code"`
	Level       string `json:"level"`
	Description string `json:"description"`
}

type Table struct {
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Description string   `json:"description,omitempty"`
	Columns     []string `json:"columns"`
	Rows        [][]any  `json:"rows"`
	Links       []string `json:"links,omitempty"`
}

type Block struct {
	Kind    string  `json:"kind"`
	Columns []int   `json:"columns,omitempty"`
	Tables  []Table `json:"tables"`
}

type Section struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Blocks      []Block `json:"blocks"`
}

type SectionsResponse struct {
	Region   Region    `json:"region"`
	Year     int       `json:"year"`
	AsOf     string    `json:"as_of"`
	Sections []Section `json:"sections"`
}

type Error struct {
	Error string `json:"error"`
}
