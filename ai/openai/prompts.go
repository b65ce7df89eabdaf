package openai

const profilePrompt = `Extract durable user traits from the given conversation messages and return them as JSON.

Output ONLY valid JSON. Do not include any preamble, explanation, greeting,
or acknowledgment. Start your response directly with the opening brace { and
end with the closing brace }. Your output must exactly follow this schema:

{
  "interests": ["topic", ...],
  "concerns": ["topic", ...]
}

Rules:
- Interests are topics the user shows sustained curiosity or enthusiasm about.
- Concerns are problems, worries or risks the user raises about their own situation.
- Entries must be lowercase, 1-3 words each.
- Include only traits that are explicitly stated or clearly implied. Do not hallucinate.
- Ignore one-off factual questions; a single question about the weather is not an interest.
- If nothing can be inferred, return {"interests": [], "concerns": []}.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "I've been getting really into sourdough baking lately. Also I'm worried my mortgage rate will go up next year."
Output:
{
  "interests": ["sourdough baking"],
  "concerns": ["mortgage rate"]
}`
