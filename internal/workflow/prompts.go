package workflow

import (
	"fmt"
	"strings"

	"github.com/mosefak/medchat/internal/models"
)

// buildTranscript renders prior turns into the prompt-ready form used
// by every handler.
func buildTranscript(history []models.Message) string {
	if len(history) == 0 {
		return "(no previous messages)"
	}

	var b strings.Builder
	for _, msg := range history {
		label := "User"
		if msg.Role == "assistant" {
			label = "Assistant"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// classifierPrompt asks the model to place the latest question into
// exactly one category.
func classifierPrompt(transcript string) string {
	return fmt.Sprintf(`- **Previous Human AI Messages:**
%s

Based on Previous Human AI Messages determine the category of the latest user question. The question can belong to one of these five categories:

1. **query_related**: The user wants to retrieve or analyze data from the database.
    - Examples:
        - How many patients visited the clinic last month?
        - Show me the appointment schedule for Dr. Smith.
        - List all available doctors next Monday.
        - I need to know information about my profile

2. **medical_related**: The user is asking for general medical advice or information.
    - Examples:
        - What are the symptoms of diabetes?
        - How can I lower my blood pressure?
        - What is the treatment for migraines?
        - Hi, How are you?
        - Hello!

3. **doctor_recommendation_related**: The user is describing symptoms and needs a doctor recommendation.
    - Examples:
        - I have chest pain and feel dizzy. Which doctor should I see?
        - My child has a rash. Can you recommend a doctor?
        - I need an eye specialist for blurry vision.
        - Which doctor should I visit for stomach pain?

4. **system_flow_related**: The user is asking about UI navigation or system features.
    - Examples:
        - How do I book an appointment on this app?
        - Where can I find my medical history in the system?
        - How do I change my profile settings?
        - What does the "Notifications" tab do?
        - How do I log out of the app?

5. **out_of_scope**: The question is unrelated to health, doctors, medical data, or this application.
    - Examples:
        - Who won the football match yesterday?
        - Write me a poem about the sea.
        - What is the capital of France?

Respond with one of the following: 'query_related', 'medical_related', 'doctor_recommendation_related', 'system_flow_related', or 'out_of_scope'.`, transcript)
}

// sqlPrompt builds the role-specific SQL generation prompt. Each role
// carries its own restrictions next to the schema it is allowed to see.
func sqlPrompt(role models.Role, transcript, tablesInfo, userID, contextText string) string {
	switch role {
	case models.RolePatient:
		return fmt.Sprintf(`You are an SQL expert specializing in SQL Server. Your role is to generate only a valid and optimized SQL query based on the user's request.

**Key Responsibilities:**
- Validate if the requested information can be retrieved using the available database schema.
- If the required data is available, generate an optimized SQL Server query.
- If the database does not contain relevant tables or fields, return **"Not Available"** as the SQL query.
- Follow strict SQL Server syntax and best practices.
- Do **not** provide explanations. Return only the SQL query or "Not Available".

**Restrictions:**
- Only allow access to private columns/tables (e.g., [ProblemDescription], [CancellationReason], [IsPaid], [Security].[Users]) if the query includes a filter matching the user's AppUserId with their own ID.

**Context:**
- **Previous Human AI Messages Context:**
%s
- **Database Schema:**
%s
- **Use this user id if needed:** %s
%s

**Expected Output:**
`+"```sql\n```"+`
(or "Not Available" if the data is not retrievable)`, transcript, tablesInfo, userID, contextText)

	case models.RoleDoctor:
		return fmt.Sprintf(`You are an SQL expert specializing in SQL Server. Your role is to generate only a valid and optimized SQL query based on the user's request.

**Key Responsibilities:**
- Validate if the requested information can be retrieved using the available database schema.
- If the required data is available, generate an optimized SQL Server query.
- If the database does not contain relevant tables or fields, return **"Not Available"** as the SQL query.
- Follow strict SQL Server syntax and best practices.
- Do **not** provide explanations. Return only the SQL query or "Not Available".

**Restrictions:**
- Only allow queries for patients that the doctor is responsible for (e.g., patients with appointments linked to the doctor).
- Do not allow queries that retrieve personal or sensitive information about patients not associated with the doctor.

**Context:**
- **Previous Human AI Messages Context:**
%s
- **Database Schema:**
%s
- **Use this user id if needed:** %s
%s

**Expected Output:**
`+"```sql\n-- Optimized SQL Query (or \"Not Available\" if the data is not retrievable)\n```", transcript, tablesInfo, userID, contextText)

	default: // Admin
		return fmt.Sprintf(`You are an SQL expert specializing in SQL Server. Your role is to generate only a valid and optimized SQL query based on the user's request.

**Key Responsibilities:**
- Validate if the requested information can be retrieved using the available databases schema.
- If the required data is available, generate an optimized SQL Server query.
- If the databases do not contain relevant tables or fields, return **"Not Available"** as the SQL query.
- Follow strict SQL Server syntax and best practices.
- Do **not** provide explanations. Return only the SQL query or "Not Available".

**Context:**
- **Previous Human AI Messages Context:**
%s
- **Databases Schema:**
%s
- **Use this user id if needed:** %s
%s

**Expected Output:**
`+"```sql\n-- Optimized SQL Query (or \"Not Available\" if the data is not retrievable)\n```", transcript, tablesInfo, userID, contextText)
	}
}

// contextBlock wraps retrieved proper-noun context for the SQL and
// recommendation prompts. Empty context yields an empty block so the
// prompt omits the section entirely.
func contextBlock(context string) string {
	if context == "" {
		return ""
	}
	return fmt.Sprintf("- **The Unique Values to correct user spelling or use for filters**:\n%s", context)
}

// medicalPrompt builds the general health advice system prompt
func medicalPrompt(transcript, contextText, responseLanguage string) string {
	return fmt.Sprintf(`You are a virtual medical assistant designed to provide general health advices.

- **Previous Human AI Messages:**
%s
%s

Respond based on the **The guidelines are as follows:**

Scope of Advice:
- Answering general health inquiries.
- Offering guidance based on common symptoms.

Responding to Out-of-Scope Questions:
If you receive a question outside the scope of your role, respond politely as follows:
"Sorry, I am designed to provide general health advices. For accurate medical consultation, please reach out to a licensed medical professional."

Compliance and Privacy:
- Ensure that advice is general, based on reliable information, and complies with medical regulations.

Response Style:
- Respond with kindness and professionalism, maintaining a supportive tone.
- Respond in %s.`, transcript, contextText, responseLanguage)
}

// answerPrompt turns a question and its query result into prose
func answerPrompt(question, sqlResult string) string {
	return fmt.Sprintf(`You are a professional AI assistant responding to a client. Your role is to provide clear, accurate, and well-structured answers.

**Key Responsibilities:**
- **Answer Generation:**
    - If the SQL result correctly answers the question, provide a **precise and well-structured response**.

**Client's Input:**
- **User Question:** %s
- **SQL Result:** %s

**Response Guidelines:**
- If the data is correct: Provide a **concise and professional answer**.
- If the query or result is incorrect: Politely answer that we didn't find the info you are looking for.
- Maintain a **professional and reassuring tone**.
- Respond in the same language as the client's question.`, question, sqlResult)
}

// recommendPrompt builds the doctor recommendation system prompt
func recommendPrompt(transcript, contextText string) string {
	return fmt.Sprintf(`You are a smart medical assistant that helps users find the right doctor based on their symptoms and location.

**Key Responsibilities:**
- Analyze the user's symptoms and determine the most relevant medical specializations.
- Recommend doctors based on their specialization and relevance to the given symptoms.
- Prioritize doctors near the user, but if no nearby doctor is found, suggest the closest alternative.
- Provide clear and professional responses, ensuring the user understands why a certain specialization is recommended.
- If symptoms match multiple specializations, suggest all relevant ones.
- If the symptoms are vague, ask clarifying questions before making a recommendation.

**Response Guidelines:**
- Use a professional but friendly tone.
- Keep recommendations concise and actionable.
- Prioritize common medical specializations such as General Practitioner, Dermatologist, Cardiologist, Neurologist, etc.
- If symptoms suggest a severe condition, advise the user to seek urgent medical care.
- If no nearby doctor is available, suggest the closest alternative.
- Respond in the same language as the client's question.

**Context:**
- **Previous Human AI Messages Context:**
%s
%s

**Expected Output:**
- A structured response recommending the best doctor(s) for the symptoms and their location.`, transcript, contextText)
}

// systemFlowPrompt builds the application usage prompt
func systemFlowPrompt(question, context, transcript, responseLanguage string) string {
	return fmt.Sprintf(`Answer the question:

%s

- **The context**: %s
- **Previous Human AI Messages Context:**
%s

- Your answers should be concise and accurate.
- Respond in %s.`, question, context, transcript, responseLanguage)
}
