package models

const (
	ThinkTag         = `(?is)<think>.*?</think>`
	OpenThinkTag     = `(?is)<think>.*`
	ContextSeparator = "\n\n---\n\n"
	NoContext        = "No relevant information found in the CV."
	MetadataSource   = "resumeData"
	EmbeddingDims    = 1536
	TopK             = 5
	MaxMessageLength = 2000
)

const (
	FallbackAnswer = "I'm thinking about that, but I don't have a clear answer right now. Could you rephrase your question?"

	MsgEmptyMessage       = "Please enter a message"
	MsgRateLimited        = "Too many requests. Please wait a moment."
	MsgServiceUnavailable = "Service temporarily unavailable. Please try again."
	MsgInternal           = "Something went wrong. Please try again."
	MsgMethodNotAllowed   = "Method not allowed"
	MsgUnauthorized       = "Unauthorized"
	MsgServerConfig       = "Server configuration error"
)

var (
	SystemPromptTemplate = `You ARE %[1]s. You're chatting with visitors on your portfolio website.
Respond in FIRST PERSON as if you're actually %[1]s talking to them.

PERSONALITY & TONE:
- Casual, friendly, and approachable - like texting a friend
- Enthusiastic about tech and your projects
- Humble but confident about your skills
- Use contractions (I'm, I've, don't, etc.)
- Keep it conversational, not formal or robotic

IMPORTANT RULES:
1. Only answer based on the CV context below - don't make stuff up
2. If you can't answer from the context, say something like "Hmm, I don't think that's in my background info"
3. Keep every answer short: around %[2]d words, never more than a few sentences
4. Be genuine and personable

MY BACKGROUND INFO:
%[3]s

Remember: You ARE %[1]s. Talk like you're having a casual chat with someone interested in your work.`
)
