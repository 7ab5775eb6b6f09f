package httpapi

import (
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/agent"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
)

//QueryThreadsResponse contains a list of Threads
type QueryThreadsResponse struct {
	Threads []*api.Thread `json:"threads"`
}

//ReadMessagesResponse contains a Thread's Messages
type ReadMessagesResponse struct {
	Messages []*api.Message `json:"messages"`
}

//QueryMCPServersResponse contains a list of MCPServers
type QueryMCPServersResponse struct {
	Servers []*api.MCPServer `json:"servers"`
}

//ReadTransportsResponse contains the list of allowed MCPServer transports
type ReadTransportsResponse struct {
	Transports []string `json:"transports"`
}

//PendingApprovalsResponse contains tool calls awaiting approval
type PendingApprovalsResponse struct {
	Approvals []*agent.PendingApproval `json:"approvals"`
}

//DeletedResponse reports a successful delete
type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}
