package member

// |||||| PROTOCOL ||||||

type JoinRequest struct {
	App               string `json:"app,omitempty"`
	Source            string `json:"source"`
	IncarnationNumber int64  `json:"incarnationNumber"`
}

type JoinResponse struct {
	App         string `json:"app,omitempty"`
	Coordinator string `json:"coordinator"`
	Membership  List   `json:"membership"`
	Checksum    uint32 `json:"membershipChecksum"`
}

type PingBody struct {
	Checksum                uint32   `json:"checksum"`
	Changes                 []Change `json:"changes"`
	Source                  string   `json:"source"`
	SourceIncarnationNumber int64    `json:"sourceIncarnationNumber"`
}

type PingReqRequest struct {
	PingBody
	Target string `json:"target"`
}

type PingReqResponse struct {
	Changes    []Change `json:"changes"`
	Target     string   `json:"target"`
	PingStatus bool     `json:"pingStatus"`
}

// |||||| ADMIN ||||||

type Membership struct {
	Members  List   `json:"members"`
	Checksum uint32 `json:"checksum"`
}

// Stats is the body of an admin stats response.
type Stats struct {
	Membership Membership `json:"membership"`
}
