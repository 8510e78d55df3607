package mcp

import "github.com/mark3labs/mcp-go/mcp"

var analyzeToolDef = mcp.NewTool("scraper_analyze",
	mcp.WithDescription("Scrape a website and classify it: site type, description, available data and suggested extractions. Sets the session's current website."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL to analyze")),
	mcp.WithString("session_id", mcp.Description("Session to use; a new session is created when omitted")),
)

var extractToolDef = mcp.NewTool("scraper_extract",
	mcp.WithDescription("Extract structured items from the website analyzed in this session. Requires a prior scraper_analyze call."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by scraper_analyze")),
	mcp.WithString("requirements", mcp.Description("What to extract, e.g. 'product names with prices and images'")),
)

var chatToolDef = mcp.NewTool("scraper_chat",
	mcp.WithDescription("Ask a free-form question within a scraping session; the session history is used as context."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to converse in")),
	mcp.WithString("message", mcp.Required(), mcp.Description("The question or instruction")),
)

var historyToolDef = mcp.NewTool("scraper_history",
	mcp.WithDescription("Return the ordered messages of a session."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to read")),
)

var fetchToolDef = mcp.NewTool("scraper_fetch",
	mcp.WithDescription("Fetch and extract a page without the AI: title, description, main text, structured data keys, images and links."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL to fetch")),
	mcp.WithNumber("max_text", mcp.Description("Maximum characters of main text to return (default 3000)")),
)

var newSessionToolDef = mcp.NewTool("scraper_new_session",
	mcp.WithDescription("Start a new, empty scraping session and return its id."),
)

var sessionsToolDef = mcp.NewTool("scraper_sessions",
	mcp.WithDescription("List the ids of the sessions currently held in memory."),
)

var deleteSessionToolDef = mcp.NewTool("scraper_delete_session",
	mcp.WithDescription("Forget a session. Journaled history is kept and can be resumed with the same id."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to delete")),
)
