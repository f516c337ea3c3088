package kafka

// Топики событий удержания. Ключом сообщения служит ID клиента, чтобы все
// события одного клиента попадали в одну партицию и сохраняли порядок.
const (
	TopicCustomerFlagged      = "retention.customer_flagged"
	TopicStatusChanged        = "retention.status_changed"
	TopicInterventionRecorded = "retention.intervention_recorded"
	TopicChatMessagePosted    = "retention.chat_message_posted"
)
