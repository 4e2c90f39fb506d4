package publish

// Replies sent to the administrator.
const (
	msgSendArchive     = "📦 Send ZIP file."
	msgSendThumbnail   = "🖼 Send thumbnail image."
	msgSendDescription = "✍️ Send channel description."
	msgCancelled       = "❌ Publishing cancelled."
	msgPublished       = "✅ Project published."
	msgAlreadyExists   = "❌ Payload already exists."
	msgUsage           = "❌ Usage:\n/publish payload | watch_url"
	msgInProgress      = "⚠️ Publishing of %s is in progress. Finish it or send /cancel."
	msgNothingToCancel = "Nothing to cancel."
	msgDescriptionLong = "⚠️ Description is too long: %d characters, the limit is %d."
	msgPostFailed      = "⚠️ Channel post failed, try again."
	msgSaveFailed      = "⚠️ Post sent but saving failed, post retracted."
	msgExpired         = "⌛ Publishing session expired."
	msgNoProjects      = "📭 No projects found."
	msgProjectsHeader  = "📦 Published Projects:"
	publishButton      = "✅ Publish"
	cancelButton       = "❌ Cancel"
)

// Callback keys of the preview buttons. The payload is the draft id.
const (
	CallbackConfirm = "publish_confirm"
	CallbackCancel  = "publish_cancel"
)
