package preprocessor

import "strings"

const promptHeader = `You are a code generator for the SCRUM programming language. Generate ONLY valid SCRUM code for the intent below. Do not include explanations or markdown formatting.

SCRUM syntax:
- Classes: EPIC "Name" USING [field, other] ... END OF EPIC
- Functions: USER STORY "Name" USING [param] ... END OF STORY
- Return a value: RETURN ANSWER expression
- Print: SAY expression
- Read console input into a variable: ASK variable
- Assignment: variable IS expression
- Arrays: items IS {1, 2, 3}; append with items ADDING 4; index with items[0]
- Arithmetic: + - * / // %   (+ also joins text and arrays)
- Comparison: == != < > <= >=
- Logical: AND OR !
- Conditionals: IF condition ... ELSEIF condition ... ELSE ... END IF
- Counted loop: I WANT TO ITERATE i FOR RANGE 0 TILL 10 by 2 ... END OF ITERATION
- Loop over an array: I WANT TO ITERATE item FOR RANGE items ... END OF ITERATION
- While loop: I WANT TO ITERATE count < 10 ... END OF ITERATION
- Leave or skip a loop iteration: break, next
- Instantiate: person IS NEW Person USING ["Ada", 36]
- Fields and methods: person :: name, person :: greet USING ["hi"]
- Call a function: total USING [1, 2]
- Names with spaces become underscores: USER STORY "sum all" is called as sum_all

Examples:

Intent: print the numbers from 1 to 5
SCRUM code:
I WANT TO ITERATE i FOR RANGE 1 TILL 6
    SAY i
END OF ITERATION

Intent: ask for a number and say whether it is positive, negative or zero
SCRUM code:
ASK number
IF number > 0
    SAY "positive"
ELSEIF number < 0
    SAY "negative"
ELSE
    SAY "zero"
END IF

Intent: define a story that sums an array
SCRUM code:
USER STORY "sum all" USING [values]
    total IS 0
    I WANT TO ITERATE v FOR RANGE values
        total IS total + v
    END OF ITERATION
    RETURN ANSWER total
END OF STORY

Intent: a team member that can introduce itself
SCRUM code:
EPIC "Team Member" USING [name, role]
    USER STORY "introduce"
        RETURN ANSWER name + " works as " + role
    END OF STORY
END OF EPIC

Now generate SCRUM code for this intent:
`

const promptFooter = `

Remember: output ONLY SCRUM code, nothing else.`

// BuildPrompt wraps an intent with the language summary and examples.
func BuildPrompt(intent string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString(strings.TrimSpace(intent))
	b.WriteString(promptFooter)
	return b.String()
}

// retryPrompt asks for a corrected attempt after generated code failed to parse.
func retryPrompt(intent string, lastErr error) string {
	return intent + "\n\nPrevious attempt generated invalid SCRUM code. Error: " + lastErr.Error() +
		"\nPlease correct the syntax and try again."
}
