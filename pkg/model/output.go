package model

const (
	SearchIndexJS   = "searchindex.js"
	SearchIndexJSON = "searchindex.json"
)

// BuildOutput 建置完成後要上傳的檔案
type BuildOutput struct {
	HTMLFiles       []string
	SearchIndexJS   string
	SearchIndexJSON string
}
