package extractor

import "fmt"

const candidateSchemaText = `{
  "name": "",
  "email": null,
  "phone": null,
  "title": null,
  "sector": null,
  "experience": null,
  "education": null,
  "skills": [],
  "summary": null
}`

// BuildResumePrompt returns the extraction prompt for a single resume.
func BuildResumePrompt() string {
	return `You are a resume data extraction assistant. Analyze the provided resume and extract the candidate's details into the following JSON structure.

IMPORTANT INSTRUCTIONS:
- Extract only what the resume states. Use null for any field that is not present; never invent values.
- "name" is the candidate's full name as written. If no name can be found, use an empty string.
- "experience" is a short free-text summary of work history (roles and durations), not a number.
- "skills" is a flat array of individual skill strings.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation — just the raw JSON object.

Return a single top-level key "candidate" following this schema:
` + candidateSchemaText
}

// BuildResumeGroupPrompt returns the extraction prompt for a group of
// resumes processed in one call. The response must contain exactly one
// candidate per input document, in input order.
func BuildResumeGroupPrompt(count int) string {
	return fmt.Sprintf(`You are a resume data extraction assistant. You are given %d resumes. For EACH resume, extract the candidate's details.

IMPORTANT INSTRUCTIONS:
- Return exactly %d candidate objects, one per resume, in the same order as the resumes were provided.
- Extract only what each resume states. Use null for any field that is not present; never invent values.
- "name" is the candidate's full name as written. If no name can be found, use an empty string.
- "experience" is a short free-text summary of work history (roles and durations), not a number.
- "skills" is a flat array of individual skill strings.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation — just the raw JSON object.

Return a single top-level key "candidates": an array where each element follows this schema:
`, count, count) + candidateSchemaText
}
