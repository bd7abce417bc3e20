// Package services assembles the agentmesh service graph from configuration.
//
// NewRegistry wires gateways, the retry policy, the agent set, the code
// sandbox, the workflow engine, the conversation store and the assistant
// service. Front ends (the CLI and the HTTP server) take what they need
// through the Registry accessors.
package services
