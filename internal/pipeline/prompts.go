package pipeline

const extractSystemPrompt = `You are a business analyst reviewing posts and comments from online small-business forums. Identify whether the text describes a concrete business problem or pain point.

Respond with a valid JSON object:
{
  "problem_summary": "<one-sentence summary, or exactly 'No clear problem' if none>",
  "problem_domain": "<short lowercase label, e.g. 'accounting', 'hiring', 'marketing'>",
  "supporting_quotes": [{"text": "<verbatim quote>", "context": "<optional context>"}],
  "urgency_level": "<Low|Medium|High>",
  "financial_indicators": {
    "amounts_mentioned": ["<dollar amounts or ranges quoted>"],
    "willing_to_pay": "<Yes|No|Maybe|Unknown>",
    "cost_of_problem": "<what the problem costs them, if stated>"
  },
  "saas_potential_flag": "<Yes|No|Uncertain>"
}

Quotes must be verbatim from the text. Do not invent financial figures.`

const extractUserPrompt = `Subreddit: r/%s
Title: %s

%s`

const themeSystemPrompt = `You are consolidating problem-domain labels produced by an earlier analysis pass. Labels that describe the same underlying business problem should merge into one canonical theme.

Respond with a valid JSON object:
{
  "themes": [
    {
      "title": "<canonical theme name>",
      "summary": "<one-sentence consolidated problem statement>",
      "domains": ["<input label>", "<input label>"]
    }
  ]
}

Every input label must appear in exactly one theme. Do not invent labels.`

const themeUserPrompt = `Domain labels to consolidate:
%s`

const opportunitySystemPrompt = `You are a startup analyst. Given a consolidated problem theme with supporting posts, define a business opportunity.

Respond with a valid JSON object:
{
  "title": "<short opportunity name>",
  "problem_summary": "<consolidated statement of the problem>",
  "description": "<2-3 sentence description of the opportunity>",
  "target_user": "<who suffers this problem>",
  "value_proposition": "<why they would pay for a solution>"
}`

const opportunityUserPrompt = `Theme: %s
Theme summary: %s

Sample problems from %d posts:
%s`

const validateSystemPrompt = `You are an investor evaluating a business opportunity. Score it on three axes, each an integer from 1 to 10, and give a Go or No-Go verdict.

Respond with a valid JSON object:
{
  "monetization_score": <1-10>,
  "market_size_score": <1-10>,
  "feasibility_score": <1-10>,
  "recommendation": "<Go|No-Go>",
  "justification": "<2-3 sentence rationale>"
}

Scores must be integers. recommendation must be exactly "Go" or "No-Go".`

const validateUserPrompt = `Opportunity: %s
Problem: %s
Description: %s
Target user: %s
Value proposition: %s

Evidence: %d of %d analyzed posts describe this pain point (%.1f%%).`

const solutionSystemPrompt = `You are a product strategist. Brainstorm 1-3 distinct solution concepts for a validated business opportunity.

Respond with a valid JSON object:
{
  "concepts": [
    {
      "concept_name": "<short product name>",
      "core_features": ["<feature>", "<feature>"]
    }
  ]
}`

const solutionUserPrompt = `Opportunity: %s
Problem: %s
Target user: %s
Value proposition: %s`

// technologyStackPrompt fixes the implementation stack every generated
// document assumes, so architecture sections stay concrete and consistent
// across the BRD, PRD, and delivery plan.
const technologyStackPrompt = `Assume this fixed technology stack for all architecture and implementation detail:
- Framework: Next.js (App Router paradigm exclusively), deployed on Vercel
- Authentication: Clerk
- UI: Shadcn/ui components with Tailwind CSS
- Database: Supabase PostgreSQL; all data mutations go through Next.js Server Actions
- Email: Resend for transactional email, templated with React Email
- Forms: react-hook-form with zod validation
- State: Zustand, only for truly complex global client state`

const brdSystemPrompt = `You are a business analyst writing a Business Requirements Document (BRD) in markdown. Cover: executive summary, problem statement, market evidence, business objectives, success criteria, constraints, and stakeholders. Output only the markdown document.

` + technologyStackPrompt

const brdUserPrompt = `Opportunity: %s
Problem: %s
Description: %s
Target user: %s
Value proposition: %s
Validation: monetization %d/10, market size %d/10, feasibility %d/10 — %s
Justification: %s
Selected solution concept: %s
Core features: %s

Market evidence (JSON):
%s`

const prdSystemPrompt = `You are a product manager writing a Product Requirements Document (PRD) in markdown, derived from the BRD provided. Cover: product overview, user personas, functional requirements, non-functional requirements, MVP scope, and out-of-scope items. Technical requirements must name the specific stack components below. Output only the markdown document.

` + technologyStackPrompt

const prdUserPrompt = `Solution concept: %s
Core features: %s

BRD:
%s`

const agileSystemPrompt = `You are an agile coach writing a delivery plan in markdown, derived from the PRD provided. Cover: epics, user stories with acceptance criteria, a sprint breakdown for an MVP, and key risks. Subtasks must be explicit about the stack components below. Output only the markdown document.

` + technologyStackPrompt

const agileUserPrompt = `PRD:
%s`
