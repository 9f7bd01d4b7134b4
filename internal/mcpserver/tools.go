package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the ChainCheck MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolCheckEntity = mcp.NewTool("check_entity",
	mcp.WithDescription(
		"Run a fraud check on a crypto-related entity: a wallet address, domain, "+
			"Twitter/X handle, or email address. Returns a risk verdict "+
			"(SAFE/LOW_RISK/UNKNOWN/CAUTION/FRAUD) with the signals behind it: "+
			"blacklist and whitelist hits, URL scanner results, lookalike detection, "+
			"ML risk score, and on-chain activity. Use this before trusting or "+
			"paying any address, site, or account."),
	mcp.WithString("value",
		mcp.Required(),
		mcp.Description("The entity to check (e.g. '0x1234...', 'example.com', '@handle', 'user@mail.com')")),
)

var ToolReportEntity = mcp.NewTool("report_entity",
	mcp.WithDescription(
		"File a fraud report against an entity. Reports feed the community "+
			"counters shown alongside future checks of the same entity."),
	mcp.WithString("value",
		mcp.Required(),
		mcp.Description("The entity being reported (address, domain, handle, or email)")),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Kind of fraud observed"),
		mcp.Enum("phishing", "scam", "malware", "impersonation", "theft", "other")),
	mcp.WithString("description",
		mcp.Description("What happened, in the reporter's words")),
	mcp.WithString("reporter",
		mcp.Description("Optional contact or identifier for the reporter")),
)

var ToolGetReports = mcp.NewTool("get_reports",
	mcp.WithDescription(
		"List recent community fraud reports filed against an entity. "+
			"Shows the category and description of each report plus the total count."),
	mcp.WithString("value",
		mcp.Required(),
		mcp.Description("The entity to look up (address, domain, handle, or email)")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of reports to return (default 10)")),
)

var ToolListBlacklist = mcp.NewTool("list_blacklist",
	mcp.WithDescription(
		"Browse the curated blacklist of known-fraudulent entities. "+
			"Requires the server to be configured with an admin secret."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 20)")),
)
