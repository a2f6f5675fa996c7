package httpapi

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	listSeparatorConstant = ", "
	jsonNullConstant      = "null"
)

// StringList accepts either a JSON string or an array of strings.
type StringList []string

// UnmarshalJSON decodes a string, an array of strings, or null.
func (list *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == jsonNullConstant {
		*list = nil
		return nil
	}
	if trimmed[0] == '[' {
		var values []string
		if decodeError := json.Unmarshal(trimmed, &values); decodeError != nil {
			return decodeError
		}
		*list = values
		return nil
	}
	var single string
	if decodeError := json.Unmarshal(trimmed, &single); decodeError != nil {
		return decodeError
	}
	*list = StringList{single}
	return nil
}

// String joins the values with commas.
func (list StringList) String() string {
	return strings.Join(list, listSeparatorConstant)
}

type fileRequestPayload struct {
	FileURLs []string `json:"fileUrls"`
	UserUID  string   `json:"userUid"`
}

type fileContentPayload struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

type processedFilePayload struct {
	URL      string `json:"url"`
	Content  string `json:"content"`
	Degraded bool   `json:"degraded"`
}

type processFilesResponse struct {
	Message          string                 `json:"message"`
	ModifiedContents []string               `json:"modifiedContents"`
	FileContents     []string               `json:"fileContents"`
	Files            []processedFilePayload `json:"files"`
	DroppedURLs      []string               `json:"droppedUrls,omitempty"`
}

type branchCommitPayload struct {
	UserUID       string `json:"userUid"`
	BranchName    string `json:"branchName"`
	FileContents  string `json:"fileContents"`
	FilePath      string `json:"filePath"`
	Repository    string `json:"repository"`
	BaseBranch    string `json:"baseBranch"`
	CommitMessage string `json:"commitMessage"`
}

type branchCommitResponse struct {
	Message   string `json:"message"`
	Branch    string `json:"branch,omitempty"`
	CommitSHA string `json:"commitSha,omitempty"`
}

type contactPayload struct {
	FirstName   string     `json:"firstName"`
	Surname     string     `json:"surname"`
	CompanyName string     `json:"companyName"`
	Email       string     `json:"email"`
	Website     string     `json:"website"`
	Message     string     `json:"message"`
	APIs        StringList `json:"apis"`
}

type providerRequestPayload struct {
	FullName            string `json:"fullName"`
	CompanyName         string `json:"companyName"`
	WorkEmail           string `json:"workEmail"`
	CompanyURL          string `json:"companyURL"`
	APIIntegration      string `json:"apiIntegration"`
	Requirements        string `json:"requirements"`
	APIDocumentationURL string `json:"apiDocumentationURL"`
}

type agentQueryPayload struct {
	Input json.RawMessage `json:"input"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
