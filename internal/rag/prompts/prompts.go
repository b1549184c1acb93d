// Package prompts holds the prompt templates used for summarization and
// answer generation.
package prompts

import (
	"fmt"
	"strings"
)

const textSummarization = `You are an assistant tasked with summarizing text for ` +
	`retrieval. These summaries will be embedded and used to retrieve the raw text ` +
	`elements. Give a concise summary of the text that is well optimized for retrieval.
Text:
%s
`

const tableSummarization = `You are an assistant tasked with summarizing tables ` +
	`for retrieval. These summaries will be embedded and used to retrieve the raw table ` +
	`elements. Give a concise summary of the table that is well optimized for retrieval.
Table:
%s
`

// ImageSummarization instructs the model to describe an inlined image; the
// image itself travels as a separate prompt part.
const ImageSummarization = `You are an assistant tasked with summarizing images ` +
	`for retrieval. These summaries will be embedded and used to retrieve the raw image. ` +
	`Give a concise summary of the image that is well optimized for retrieval.`

const ragAnswer = `You will be given a mixed of text, tables, and images usually of ` +
	`charts or graphs. Use this information to provide an answer to the user question.
User-provided question:
%s
Text and / or tables:
%s
`

const condenseQuestion = `Given the conversation history and the following question, ` +
	`can you rephrase the user's question in its original language so that it is ` +
	`self-sufficient. You are presented with a conversation that may contain some ` +
	`spelling mistakes and grammatical errors, but your goal is to understand the ` +
	`underlying question. Make sure to avoid the use of unclear pronouns.

If the question is already self-sufficient, return the original question. If it seem ` +
	`the user is authorizing the chatbot to answer without specific context, make sure to ` +
	`reflect that in the rephrased question.

Chat history: %s

Question: %s
`

// TextSummarization renders the summarization prompt for a text element.
func TextSummarization(text string) string {
	return fmt.Sprintf(textSummarization, text)
}

// TableSummarization renders the summarization prompt for a table element.
func TableSummarization(table string) string {
	return fmt.Sprintf(tableSummarization, table)
}

// RAGAnswer renders the answer-generation prompt from the user question and
// the retrieved textual context blocks.
func RAGAnswer(question string, contexts []string) string {
	return fmt.Sprintf(ragAnswer, question, strings.Join(contexts, "\n\n"))
}

// CondenseQuestion renders the prompt that rewrites a follow-up question into
// a standalone one.
func CondenseQuestion(chatHistory, question string) string {
	return fmt.Sprintf(condenseQuestion, chatHistory, question)
}
